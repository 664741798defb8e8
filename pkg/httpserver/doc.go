// Package httpserver runs an http.Server with graceful shutdown on context
// cancellation or OS signals, plus a JSON health endpoint that probes
// backing dependencies.
package httpserver
