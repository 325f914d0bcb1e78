// Package relay connects pqchat to the relay server.
//
// It provides:
//   - HTTPDirectory, a domain.Directory over the relay's JSON API for
//     publishing and fetching public keys and querying presence.
//   - WSTransport, a domain.Transport over a WebSocket at /ws/{user}.
//   - Loopback, an in-process relay implementing both, for tests and
//     single-process demos.
//
// All requests accept a context for cancellation and deadlines. Network
// failures and unexpected statuses wrap domain.ErrTransport; a missing key
// wraps domain.ErrNotFound so callers can tell them from crypto failures.
package relay
