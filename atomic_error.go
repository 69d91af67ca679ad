// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import "sync"

// atomicError keeps the first error that ends a connection.
type atomicError struct {
	mu  sync.Mutex
	val error
}

// storeFirst records err unless an error is already held. It reports
// whether err was stored.
func (a *atomicError) storeFirst(err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.val != nil || err == nil {
		return false
	}
	a.val = err

	return true
}

func (a *atomicError) load() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.val
}
