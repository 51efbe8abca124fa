package ws

import "errors"

var (
	// ErrHandshakeTimeout indicates the websocket handshake exceeded the configured timeout.
	ErrHandshakeTimeout = errors.New("websocket handshake timed out")
	// ErrSessionShutdown is the close reason used when the server tears a
	// session down, on shutdown or idle eviction.
	ErrSessionShutdown = errors.New("websocket session shutdown")
)
