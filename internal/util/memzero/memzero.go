// Package memzero wipes secrets held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros. The KeepAlive stops the store from being
// treated as dead when b is not read again.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

// All zeroes every slice in bufs.
func All(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
