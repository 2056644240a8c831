// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package runner

import (
	"bytes"
	"context"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

func newTestRunner(buf *bytes.Buffer) *Runner {
	r := NewRunner()
	r.Out = buf
	return r
}

func TestScriptText(t *testing.T) {
	s := New("echo one", "echo two")
	text := s.Text()
	if !strings.HasPrefix(text, "#!/bin/sh\n# COMMANDS to run\n") {
		t.Fatalf("missing script header: %q", text)
	}
	if !strings.Contains(text, "echo one\n") || !strings.Contains(text, "echo two\n") {
		t.Fatalf("steps missing from script: %q", text)
	}
}

func TestRun_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	var buf bytes.Buffer
	r := newTestRunner(&buf)

	res, err := r.Run(context.Background(), New("echo hello"))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(res.Output, "hello") {
		t.Fatalf("expected output to contain 'hello', got %q", res.Output)
	}
	if res.Hint != "" {
		t.Fatalf("unexpected hint on success: %q", res.Hint)
	}
	if !strings.Contains(buf.String(), "# COMMANDS to run") {
		t.Fatalf("script was not echoed: %q", buf.String())
	}
}

func TestRun_DryRun(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRunner(&buf)
	r.DryRun = true

	res, err := r.Run(context.Background(), New("exit 1"))
	if err != nil {
		t.Fatalf("dry run should not fail: %v", err)
	}
	if res.Output != "" {
		t.Fatalf("dry run should not produce output, got %q", res.Output)
	}
	if !strings.Contains(buf.String(), "exit 1") {
		t.Fatalf("dry run should still print the script: %q", buf.String())
	}
}

func TestRun_FailureMatchesHint(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	var buf bytes.Buffer
	r := newTestRunner(&buf)
	r.Hints = []Hint{
		{Pattern: regexp.MustCompile(`Permission denied`), Advice: "pick a writable prefix"},
	}

	res, err := r.Run(context.Background(), New("echo 'Permission denied' >&2", "exit 3"))
	if err == nil || res.Err == nil {
		t.Fatalf("expected failure, got err=%v res.Err=%v", err, res.Err)
	}
	if res.Hint != "pick a writable prefix" {
		t.Fatalf("expected hint, got %q", res.Hint)
	}
	if !strings.Contains(buf.String(), "TAKE ACTION: pick a writable prefix") {
		t.Fatalf("hint was not echoed: %q", buf.String())
	}
}
