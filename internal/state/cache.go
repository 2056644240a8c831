// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package state provides a secure, in-memory cache for transient application
// state, such as package-index bearer tokens, that need to be shared between
// different parts of the application (e.g., CLI flags and TUI components).
package state

import (
	"sync"

	"github.com/jmborr/qefdata/internal/security"
)

// TokenCache is a simple, concurrency-safe, in-memory "mailbox" for
// temporarily storing the package-index API token. The value is held as a
// security.Secret so an accidental fmt or JSON dump of the mailbox never
// reveals it, and so it can be explicitly zeroed after use.
var TokenCache = &tokenMailbox{
	// value is initialized to nil
}

type tokenMailbox struct {
	value security.Secret
	mu    sync.RWMutex
}

// Set stores a copy of the token in the cache. It overwrites any existing value.
func (p *tokenMailbox) Set(tok []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.value.Zero()
	if tok == nil {
		p.value = nil
		return
	}
	// Store a copy so the caller's original slice isn't held by the cache.
	p.value = security.FromBytes(tok)
}

// Get retrieves a copy of the token from the cache.
// The caller is responsible for zeroing out the returned byte slice after use.
// This method is safe for concurrent use by multiple goroutines.
func (p *tokenMailbox) Get() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.value == nil {
		return nil
	}

	// Return a copy so that multiple goroutines can get the token
	// and one wiping its copy doesn't affect others.
	return p.value.Bytes()
}

// Clear securely wipes the token from the cache memory.
func (p *tokenMailbox) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value.Zero()
	p.value = nil
}
