// Package correlation matches outbound requests to their tagged responses.
//
// A caller registers a one-shot Waiter for a tag, sends its request, then
// waits. The transport read loop hands every tagged inbound message to
// Deliver, which routes it to at most one waiter. Messages nobody is
// waiting for are dropped.
//
// Thread Safety:
//   - Engine and Waiter are safe for concurrent use. Register, Deliver and
//     Cancel may run on different goroutines.
package correlation
