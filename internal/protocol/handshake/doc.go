// Package handshake builds and consumes the wire messages of the KEM
// session handshake.
//
// # Flow
//
// Requester:
//  1. Send chat_request {from, to}. No key material is exchanged.
//
// Responder, on accepting:
//  1. Fetch the requester's ML-KEM public key from the directory.
//  2. Encapsulate against it (Respond), keeping the shared secret.
//  3. Send shared_secret {from, to, ct, peerKyberPk}.
//
// Requester, on shared_secret:
//  1. Decapsulate ct with its own private key (Finish) to recover the same
//     secret.
//
// Both sides use the raw 32-byte shared secret as the AES-256-GCM session
// key; no further derivation is applied.
//
// # Security notes
//
// Neither message is signed. Any party claiming a from identifier can start
// or answer a handshake; authenticity is only enforced afterwards, per chat
// message, by ML-DSA signatures checked against the directory. The layering
// is kept as is so both ends interoperate with peers that do not sign
// handshakes.
package handshake
