// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the device client runtime.
//
// It opens the local store, restores the device identity and wires the
// journal, the entry log and the sync engine to the remote server. The
// daemon mode additionally runs the background workers until the process is
// signalled.
package client
