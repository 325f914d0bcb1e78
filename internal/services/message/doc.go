// Package message sends and receives signed, encrypted chat messages.
//
// Sending encrypts under the peer session key, signs the envelope and hands
// it to the transport. Receiving looks up the session key and the sender's
// signature key, verifies, then decrypts. Both directions append the
// encrypted envelope to the local history.
package message
