// Package transport is the WebSocket channel to the control unit.
//
// The channel carries text frames in both directions. Outbound frames are
// requests and commands; inbound frames are KEY=VALUE responses or bare
// session tokens, handed to a single handler in arrival order. The client
// redials with exponential backoff when the connection drops and reports
// each successful reconnection through SetOnConnect.
package transport
