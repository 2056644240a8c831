// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/model"
)

var (
	// Registry of in-flight sessions so an interrupt can mark them failed.
	activeSessions = make(map[string]*Session)
	sessionsMutex  sync.RWMutex

	signalHandlerInstalled bool
	signalHandlerMutex     sync.Mutex
)

// RegisterSession adds a session to the active registry. Begin calls this;
// it is exported for callers that construct sessions manually in tests.
func RegisterSession(s *Session) {
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()
	activeSessions[s.ID] = s
}

// UnregisterSession removes a session from the active registry.
func UnregisterSession(id string) {
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()
	delete(activeSessions, id)
}

// ActiveCount reports how many sessions are currently registered.
func ActiveCount() int {
	sessionsMutex.RLock()
	defer sessionsMutex.RUnlock()
	return len(activeSessions)
}

// InstallSignalHandler marks all in-flight sessions failed when the process
// receives SIGINT or SIGTERM, then exits. Safe to call more than once.
func InstallSignalHandler() {
	signalHandlerMutex.Lock()
	defer signalHandlerMutex.Unlock()

	if signalHandlerInstalled {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		CleanupAllActiveSessions()
		os.Exit(1)
	}()

	signalHandlerInstalled = true
}

// CleanupAllActiveSessions marks every registered session as failed. It is
// called from the signal handler and may be called directly on shutdown.
func CleanupAllActiveSessions() error {
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()

	var lastError error
	for _, s := range activeSessions {
		_ = logAction("FETCH_FAILED", fmt.Sprintf("dataset: %s, remote: %s, reason: interrupted by signal", s.Dataset, s.Remote))
		if err := db.UpdateFetchSessionStatus(s.ID, model.FetchFailed); err != nil {
			lastError = err
		}
	}
	activeSessions = make(map[string]*Session)
	return lastError
}
