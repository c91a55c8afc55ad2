// Package server runs the moodsync sync API.
//
// It owns the HTTP server lifecycle: startup, signal handling and graceful
// shutdown, including the long-lived change feed connections.
package server
