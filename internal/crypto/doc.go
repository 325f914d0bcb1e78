// Package crypto exposes the primitives pqchat is built from.
//
// Contents
//
//   - Passphrase key derivation, PBKDF2-SHA256 (DeriveKey, NewSalt)
//   - AES-256-GCM sealing with a fresh random IV per call (Seal, Open)
//   - ML-KEM-768 key generation, encapsulation and decapsulation
//     (GenerateKEM, Encapsulate, Decapsulate)
//   - ML-DSA-65 key generation, signing and verification
//     (GenerateSigning, Sign, Verify)
//   - Boundary decoding of key material from hex or base64 (DecodeKey,
//     ValidateSigningKey) and canonical base64 (EncodeBase64, DecodeBase64)
//   - Short public-key fingerprints for display (Fingerprint)
//
// # Notes
//
// Failures are reported with the sentinel errors of internal/domain:
// ErrAuthentication for tag or signature failures and ErrValidation for
// malformed input. Callers should treat returned secrets as sensitive and
// wipe them with memzero.Zero when practical.
package crypto
