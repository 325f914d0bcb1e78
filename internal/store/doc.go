// Package store persists pqchat's records.
//
// It contains two implementations of domain.Store:
//   - FileStore keeps one JSON file per record under a home directory and
//     replaces files atomically (temp file, then rename).
//   - SQLStore keeps the same records in a relational database through gorm,
//     backed by sqlite or postgres.
//
// Secrets reach the store already sealed; neither backend sees plaintext
// keys, shared secrets or messages. Lookups of missing records report
// ok == false rather than a zero value.
package store
