// Package server wires the coordinator together: configuration, logging,
// metrics, the settings store, the three coordination managers, their
// collaborators, and the HTTP/WS surface.
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger and metrics
//  3. Load the settings store
//  4. Construct state, memory, and worker managers
//  5. Start the periodic memory sweep
//  6. Setup HTTP routes and middleware
//  7. Serve until signalled, then Close for ordered teardown
package server
