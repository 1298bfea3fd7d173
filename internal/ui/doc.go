// Package ui provides terminal output for the nsd CLI.
//
// Two styles of output live here. One-shot commands (nsd addr, nsd
// interfaces, nsd init) print styled boxes and tables through a Printer and
// exit. `nsd run --tui` instead runs LiveModel, a Bubble Tea program that
// shows the discovery registry as a table and redraws on every change
// notification and once a second so ages stay current.
//
// # Architecture
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, failure or warning box with key/value details
//   - Tables: RenderServices, RenderInterfaces and RenderAddrInfo
//   - LiveModel: interactive registry view (q or ctrl+c quits, ? toggles help)
//
// # Logging Integration
//
// This package expects logging to be controlled via the NSD_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent so the
// styled output is not interleaved with log lines. Logs go to stderr.
package ui
