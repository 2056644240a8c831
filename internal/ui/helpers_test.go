// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package ui

import "testing"

func TestFormatSize(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, c := range cases {
		if got := FormatSize(c.n); got != c.want {
			t.Errorf("FormatSize(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestShortChecksum(t *testing.T) {
	if got := ShortChecksum("0123456789abcdef0123"); got != "0123456789ab…" {
		t.Errorf("ShortChecksum long = %q", got)
	}
	if got := ShortChecksum("abc"); got != "abc" {
		t.Errorf("ShortChecksum short = %q", got)
	}
}

func TestContainsIgnoreCase(t *testing.T) {
	if !ContainsIgnoreCase("Elastic_ISIS.nxs", "elastic") {
		t.Errorf("expected case-insensitive match")
	}
	if ContainsIgnoreCase("spectrum.dat", "nxs") {
		t.Errorf("unexpected match")
	}
}
