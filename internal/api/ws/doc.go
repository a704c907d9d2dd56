// Package ws bridges the state event bus to websocket clients as a JSON
// event stream.
package ws
