// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"context"
	"errors"
	"regexp"

	"github.com/jmborr/qefdata/internal/i18n"
)

// hintRule maps an error-output pattern to the message ID of a corrective
// suggestion. Rules are consulted in order; the first match wins.
type hintRule struct {
	re *regexp.Regexp
	id string
}

var hintTable = []hintRule{
	{regexp.MustCompile(`unknown host key for`), "hint.unknown_host"},
	{regexp.MustCompile(`HOST KEY MISMATCH`), "hint.host_key_mismatch"},
	{regexp.MustCompile(`unable to authenticate|no authentication method|[Pp]ermission denied \(publickey`), "hint.ssh_auth"},
	{regexp.MustCompile(`status 401|status 403|[Uu]nauthorized|[Ff]orbidden`), "hint.http_auth"},
	{regexp.MustCompile(`status 404|[Rr]epository not found`), "hint.not_found"},
	{regexp.MustCompile(`certificate|x509|tls:`), "hint.tls"},
	{regexp.MustCompile(`no space left on device`), "hint.disk_full"},
	{regexp.MustCompile(`connection refused`), "hint.connection_refused"},
	{regexp.MustCompile(`context deadline exceeded|timeout|timed out`), "hint.timeout"},
}

// SuggestAction inspects a transport failure and returns corrective advice,
// or "" when no known pattern matches. Callers print it prefixed with
// "TAKE ACTION: " after showing the error itself.
func SuggestAction(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrChecksumMismatch) {
		return i18n.T("hint.checksum_mismatch")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return i18n.T("hint.timeout")
	}
	msg := err.Error()
	for _, h := range hintTable {
		if h.re.MatchString(msg) {
			return i18n.T(h.id)
		}
	}
	return ""
}
