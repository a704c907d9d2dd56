// Command coordinator runs the runtime coordination service: application
// state, memory reclamation, and worker admission behind an HTTP/WS API.
package main
