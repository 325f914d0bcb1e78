// Package identity manages creation, sealing and loading of local identities.
//
// An identity is an ML-KEM-768 key pair and an ML-DSA-65 key pair. Both
// private keys are sealed with AES-GCM under one key derived from the
// passphrase and a fresh salt, each with its own IV. Public keys are stored
// in the clear so they can be read and published without the passphrase.
package identity
