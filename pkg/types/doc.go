// Package types defines the shared Go types passed between the refresh
// pipeline and its renderers. They are plain values with JSON tags so the
// REST API, the WebSocket hub and the terminal renderer all see the same shape.
package types
