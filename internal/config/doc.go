// Package config provides configuration loading, merging, and validation
// facilities for the moodsync server and client.
//
// Configuration is assembled from multiple sources. For every field the first
// source that sets a non-zero value wins:
//  1. Environment variables (server) or CLI flag overrides (client)
//  2. Command-line flags (server) or environment variables (client)
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetClientConfig] for the device client.
package config
