// Package timeouts defines shared timeout constants for sitegate listeners
// and upstream calls.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// UpstreamDial caps the wait when connecting to the content origin.
const UpstreamDial = 2 * time.Second

// UpstreamResponseHeader caps the wait for the content origin to answer.
const UpstreamResponseHeader = 10 * time.Second
