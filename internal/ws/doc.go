// Package ws pushes the scoreboard to browser renderers over WebSocket.
//
// Every client receives the current board on connect, again whenever the
// store changes, and on a periodic interval so "last updated" labels stay
// fresh. Messages are JSON envelopes: {"event":"board","data":{...}}.
package ws
