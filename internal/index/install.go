// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package index

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/logging"
	"github.com/jmborr/qefdata/internal/runner"
)

// InstallOptions configures Install.
type InstallOptions struct {
	Package string
	// Version pins a release; empty means latest stable.
	Version string
	// Prefix is the directory the distribution is unpacked under; the
	// release lands in <Prefix>/<package>-<version>.
	Prefix string
	// BuildSteps are optional shell commands run inside the unpacked tree
	// (e.g. "python -m pip install --user ."). They run through the step
	// runner, which shows them before executing.
	BuildSteps []string
	// DryRun resolves and prints without downloading or running steps.
	DryRun   bool
	Progress fetch.Progress
	// Runner overrides the default step runner, mainly for tests.
	Runner *runner.Runner
}

// InstallResult reports a completed installation.
type InstallResult struct {
	Version string
	// Dir is the unpacked distribution directory.
	Dir string
	// Files is the number of files unpacked.
	Files  int
	SHA256 string
	Size   int64
	// BuildOutput is the combined output of the build steps, if any ran.
	BuildOutput string
}

// Install resolves, downloads, verifies, and unpacks a distribution, then
// optionally runs the manual build steps. Every completed install writes an
// audit entry.
func (c *Client) Install(ctx context.Context, opts InstallOptions) (*InstallResult, error) {
	rel, err := c.Resolve(ctx, opts.Package, opts.Version)
	if err != nil {
		return nil, err
	}
	if rel.File.URL == "" {
		return nil, fmt.Errorf("release %s of %q has no download URL", rel.Version, opts.Package)
	}

	dir := filepath.Join(opts.Prefix, fmt.Sprintf("%s-%s", opts.Package, rel.Version))
	if opts.DryRun {
		logging.Infof("would install %s %s from %s into %s", opts.Package, rel.Version, rel.File.URL, dir)
		return &InstallResult{Version: rel.Version, Dir: dir}, nil
	}

	snap, err := fetch.DownloadSnapshot(ctx, fetch.SnapshotOptions{
		URL:        rel.File.URL,
		DestDir:    dir,
		Token:      token(),
		WantSHA256: rel.File.Digests.SHA256,
		Progress:   opts.Progress,
		Client:     c.HTTP,
	})
	if err != nil {
		return nil, fmt.Errorf("installing %s %s: %w", opts.Package, rel.Version, err)
	}

	res := &InstallResult{
		Version: rel.Version,
		Dir:     dir,
		Files:   len(snap.Files),
		SHA256:  snap.ArchiveSHA256,
		Size:    snap.ArchiveSize,
	}

	if len(opts.BuildSteps) > 0 {
		r := opts.Runner
		if r == nil {
			r = runner.NewRunner()
		}
		script := runner.New(fmt.Sprintf("cd %q", dir))
		script.Append(opts.BuildSteps...)
		out, err := r.Run(ctx, script)
		if out != nil {
			res.BuildOutput = out.Output
		}
		if err != nil {
			return res, fmt.Errorf("build steps for %s %s failed: %w", opts.Package, rel.Version, err)
		}
	}

	_ = db.LogAction("INSTALL_PACKAGE", fmt.Sprintf("package: %s, version: %s, files: %d", opts.Package, rel.Version, res.Files))
	logging.Infof("installed %s %s (%d files) into %s", opts.Package, rel.Version, res.Files, dir)
	return res, nil
}
