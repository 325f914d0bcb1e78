// Package hub is the relay server: a public-key directory, presence, and a
// WebSocket fan-out that forwards handshake and chat frames between
// connected users without reading their contents.
//
// Routes:
//
//	POST /api/keys                     publish {user, kem_pub, sig_pub}
//	GET  /api/keys/{user}/kem          {user, pk}
//	GET  /api/keys/{user}/sig          {user, pk}
//	GET  /api/presence/{peer}?self=    {peerId, online}
//	GET  /ws/{user}                    WebSocket
//	GET  /healthz, /metrics
//
// Frames for users who are not connected are dropped; there is no queue.
package hub
