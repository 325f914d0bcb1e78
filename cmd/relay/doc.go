// Command relay runs the pqchat relay: a public-key directory, presence
// lookups, and WebSocket forwarding between connected users.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory:
//
//	RELAY_ADDR              listen address (default :8000)
//	RELAY_ALLOWED_ORIGINS   comma-separated CORS and WebSocket origins (default *)
//	RELAY_LOG_LEVEL         debug, info, warn or error (default info)
//	RELAY_RATE_LIMIT        API requests per IP per window (default 120)
//	RELAY_RATE_WINDOW_MS    rate-limit window in milliseconds (default 60000)
//
// All state is in memory and lost on exit. The relay never sees plaintext or
// private keys; frames for users who are offline are dropped, not queued.
package main
