// Package envelope seals chat text into signed wire messages and opens them.
//
// Sending encrypts the text under the peer session key with a fresh IV,
// serialises {ciphertext, iv} as JSON, signs those exact bytes with ML-DSA
// and carries them as the message payload. Receiving verifies the signature
// over the payload bytes as received and only then decrypts. A signature
// failure never reaches the decryptor.
package envelope
