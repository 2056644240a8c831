// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import "github.com/jmborr/qefdata/internal/db"

// AuditWriter records catalog audit entries.
type AuditWriter interface {
	LogAction(action, details string) error
}

// package-level audit writer override for tests
var auditWriter AuditWriter

// SetAuditWriter sets a package-level AuditWriter for session operations.
func SetAuditWriter(w AuditWriter) {
	auditWriter = w
}

// ClearAuditWriter clears any previously set package-level AuditWriter.
func ClearAuditWriter() {
	auditWriter = nil
}

// logAction writes an audit entry using the package override when present,
// otherwise falls back to the global `db.LogAction` helper.
func logAction(action, details string) error {
	if auditWriter != nil {
		return auditWriter.LogAction(action, details)
	}
	return db.LogAction(action, details)
}
