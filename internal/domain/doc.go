// Package domain defines the records, wire messages, error taxonomy and
// contracts shared across pqchat. It holds plain types and interfaces only.
package domain
