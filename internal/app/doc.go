// Package app wires pqchat's dependencies and runs a logged-in client.
//
// Wire builds the store, directory client, identity service and transport
// dialer from Config. Client is the per-login context: it is created when
// an identity is unlocked, owns that user's session and message services
// and relay connection, and wipes every secret on Close.
package app
