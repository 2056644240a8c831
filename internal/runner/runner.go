// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

// package runner executes the manual shell steps some operations still need
// (source builds after a snapshot install, for example). It assembles the
// steps into a small shell script, always shows the script before running
// it, and maps well-known failure patterns to corrective hints.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jmborr/qefdata/internal/i18n"
	"github.com/jmborr/qefdata/internal/logging"
)

// scriptHeader opens every generated script. The banner comment doubles as
// the marker users grep for in terminal scrollback.
const scriptHeader = "#!/bin/sh\n# COMMANDS to run\n"

// Script is an ordered list of shell commands to run as one unit.
type Script struct {
	Steps []string
}

// New builds a script from individual shell steps.
func New(steps ...string) *Script {
	return &Script{Steps: steps}
}

// Append adds further steps to the script.
func (s *Script) Append(steps ...string) {
	s.Steps = append(s.Steps, steps...)
}

// Text renders the script as it will be handed to the shell.
func (s *Script) Text() string {
	var b strings.Builder
	b.WriteString(scriptHeader)
	for _, st := range s.Steps {
		b.WriteString(st)
		if !strings.HasSuffix(st, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Hint pairs an output pattern with the corrective advice shown when a run
// matches it.
type Hint struct {
	Pattern *regexp.Regexp
	Advice  string
}

// DefaultHints covers the failure patterns seen most often when users run
// build steps on machines missing pieces of the Python toolchain.
func DefaultHints() []Hint {
	return []Hint{
		{regexp.MustCompile(`[Pp]ermission denied`), i18n.T("runner.hint.permission_denied")},
		{regexp.MustCompile(`No module named \S+`), i18n.T("runner.hint.missing_module")},
		{regexp.MustCompile(`command not found|not recognized as an internal`), i18n.T("runner.hint.command_not_found")},
	}
}

// Result captures one script run.
type Result struct {
	Output string // combined stdout and stderr
	Hint   string // advice from the first matching hint, if any
	Err    error  // non-nil when the script exited non-zero
}

// Runner executes scripts through a shell. The zero value is not usable;
// construct with NewRunner.
type Runner struct {
	Out    io.Writer
	Shell  string
	DryRun bool
	Hints  []Hint
}

// NewRunner returns a runner printing to stdout with the default hint table.
func NewRunner() *Runner {
	return &Runner{
		Out:   os.Stdout,
		Shell: "/bin/sh",
		Hints: DefaultHints(),
	}
}

// Run shows the script, executes it unless DryRun is set, echoes the
// combined output, and consults the hint table. The returned Result always
// carries the captured output and any matched hint; the error mirrors
// Result.Err so callers can use either.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	text := s.Text()
	fmt.Fprintln(r.Out, text)

	if r.DryRun {
		logging.Debugf("dry run, skipping %d step(s)", len(s.Steps))
		return &Result{}, nil
	}

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", text)
	out, err := cmd.CombinedOutput()

	res := &Result{Output: string(out), Err: err}
	fmt.Fprintln(r.Out, i18n.T("runner.output_banner"))
	fmt.Fprint(r.Out, res.Output)
	if len(res.Output) > 0 && !strings.HasSuffix(res.Output, "\n") {
		fmt.Fprintln(r.Out)
	}

	for _, h := range r.Hints {
		if h.Pattern.MatchString(res.Output) {
			res.Hint = h.Advice
			fmt.Fprintln(r.Out, "TAKE ACTION: "+h.Advice)
			break
		}
	}

	if err != nil {
		logging.Debugf("script failed: %v", err)
	}
	return res, res.Err
}
