// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmborr/qefdata/internal/fetch"
	"github.com/jmborr/qefdata/internal/index"
	"github.com/jmborr/qefdata/internal/model"
)

// DoctorOptions names the endpoints to probe. Empty fields skip the
// corresponding check.
type DoctorOptions struct {
	IndexURL string
	Package  string

	GitURL string

	// ArchiveURL may carry a %s ref placeholder; the probe fills it with
	// "HEAD" so it resolves without knowing a release tag.
	ArchiveURL string

	RawURL string
	// RawProbeFile is the known file fetched from the raw endpoint.
	// Defaults to README.md.
	RawProbeFile string

	SFTPHost       string
	SFTPUser       string
	SFTPPath       string
	SFTPPrivateKey string

	// Timeout bounds each probe individually. Defaults to 10s.
	Timeout time.Duration

	HTTPClient *http.Client
}

type doctor struct {
	opts   DoctorOptions
	client *http.Client
}

// Doctor probes every documented retrieval channel without mutating local
// state. Checks run sequentially, each under its own timeout; unconfigured
// optional channels are reported as skipped.
func Doctor(ctx context.Context, opts DoctorOptions) *model.DoctorReport {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RawProbeFile == "" {
		opts.RawProbeFile = "README.md"
	}
	d := &doctor{opts: opts, client: opts.HTTPClient}
	if d.client == nil {
		d.client = http.DefaultClient
	}

	checks := []func(context.Context) model.CheckResult{
		d.checkIndex,
		d.checkGit,
		d.checkArchive,
		d.checkRaw,
		d.checkSFTP,
	}

	report := &model.DoctorReport{}
	for _, check := range checks {
		cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
		report.Checks = append(report.Checks, check(cctx))
		cancel()
	}
	return report
}

// run times one probe and folds its outcome into a CheckResult.
func run(name string, probe func() (string, error)) model.CheckResult {
	start := time.Now()
	detail, err := probe()
	res := model.CheckResult{Name: name, Elapsed: time.Since(start)}
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	res.OK = true
	res.Detail = detail
	return res
}

func skipped(name string) model.CheckResult {
	return model.CheckResult{Name: name, Skipped: true, Detail: "not configured"}
}

// checkIndex asks the package index for the project metadata.
func (d *doctor) checkIndex(ctx context.Context) model.CheckResult {
	if d.opts.IndexURL == "" || d.opts.Package == "" {
		return skipped("package index")
	}
	return run("package index", func() (string, error) {
		client := index.NewClient(d.opts.IndexURL, d.client)
		p, err := client.Project(ctx, d.opts.Package)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s available", p.Info.Name, p.Info.Version), nil
	})
}

// checkGit asks the git remote for its advertised refs.
func (d *doctor) checkGit(ctx context.Context) model.CheckResult {
	if d.opts.GitURL == "" {
		return skipped("git remote")
	}
	return run("git remote", func() (string, error) {
		refs, err := fetch.CheckAdvertised(ctx, d.opts.GitURL)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d refs advertised", refs), nil
	})
}

// checkArchive resolves the release-archive endpoint.
func (d *doctor) checkArchive(ctx context.Context) model.CheckResult {
	if d.opts.ArchiveURL == "" {
		return skipped("release archive")
	}
	return run("release archive", func() (string, error) {
		return d.probeHTTP(ctx, fetch.ExpandArchiveURL(d.opts.ArchiveURL, "HEAD"))
	})
}

// checkRaw fetches a known file through the raw interface.
func (d *doctor) checkRaw(ctx context.Context) model.CheckResult {
	if d.opts.RawURL == "" {
		return skipped("raw file")
	}
	url := strings.TrimRight(d.opts.RawURL, "/") + "/" + strings.TrimLeft(d.opts.RawProbeFile, "/")
	return run("raw file", func() (string, error) {
		detail, err := d.probeHTTP(ctx, url)
		if err != nil {
			return "", fmt.Errorf("%s: %w", d.opts.RawProbeFile, err)
		}
		return fmt.Sprintf("%s (%s)", d.opts.RawProbeFile, detail), nil
	})
}

// checkSFTP dials the mirror and stats the configured path.
func (d *doctor) checkSFTP(ctx context.Context) model.CheckResult {
	if d.opts.SFTPHost == "" {
		return skipped("sftp mirror")
	}
	return run("sftp mirror", func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		m, err := fetch.NewMirror(d.opts.SFTPHost, d.opts.SFTPUser, d.opts.SFTPPrivateKey)
		if err != nil {
			return "", err
		}
		defer m.Close()
		p := d.opts.SFTPPath
		if p == "" {
			p = "."
		}
		if _, err := m.Stat(p); err != nil {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
		return fmt.Sprintf("%s reachable", p), nil
	})
}

// probeHTTP tries HEAD first and falls back to GET, since raw endpoints do
// not all answer HEAD.
func (d *doctor) probeHTTP(ctx context.Context, url string) (string, error) {
	status, err := d.request(ctx, http.MethodHead, url)
	if err != nil || status >= 400 {
		status, err = d.request(ctx, http.MethodGet, url)
	}
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", fmt.Errorf("GET %s: HTTP %d", url, status)
	}
	return fmt.Sprintf("HTTP %d", status), nil
}

func (d *doctor) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}
