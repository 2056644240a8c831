// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"
)

// renderResultBlock builds the vertical block shown when an operation
// finishes: a primary message, optional indented detail lines, and on
// failure the error plus a remediation hint. Callers provide already-
// localized strings.
func renderResultBlock(primary string, details []string, err error, hint string) string {
	var parts []string
	if primary != "" {
		parts = append(parts, primary)
	}
	for _, d := range details {
		parts = append(parts, "  "+d)
	}
	if err != nil {
		parts = append(parts, "")
		parts = append(parts, errorStyle.Render(err.Error()))
		if hint != "" {
			parts = append(parts, helpStyle.Render(hint))
		}
	}
	return strings.Join(parts, "\n")
}
