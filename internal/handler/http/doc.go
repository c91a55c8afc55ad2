// Package http implements the HTTP transport of the moodsync server.
//
// It exposes route wiring, request handlers and middleware for the sync API:
// batched push, paged pull and the websocket change feed. Cross-cutting
// concerns such as authentication, request tracing, access logging and
// response compression are handled in this package before requests are
// delegated to the service layer.
package http
