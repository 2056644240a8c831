// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmborr/qefdata/internal/logging"
	"github.com/jmborr/qefdata/internal/model"
)

// RawFetcher downloads single datasets through a raw-file HTTP endpoint
// (GitHub raw, GitLab raw, or any static file server mirroring the
// repository layout).
type RawFetcher struct {
	// BaseURL is the endpoint prefix the dataset path is appended to.
	BaseURL string
	Client  *http.Client
	// Token is sent as a bearer token when set.
	Token string
}

// Fetch retrieves one dataset. When the catalog checksum is known, an
// existing matching local copy short-circuits the download unless Force is
// set; a downloaded file that hashes to something else is discarded.
func (f *RawFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	dest := filepath.Join(req.DestDir, filepath.FromSlash(req.Dataset))

	if !req.Force && req.WantSHA256 != "" {
		if sum, size, err := hashFile(dest); err == nil && sum == req.WantSHA256 {
			logging.Debugf("%s already up to date, skipping download", req.Dataset)
			return &Result{LocalPath: dest, SHA256: sum, Size: size, Source: model.SourceRaw, Skipped: true}, nil
		}
	}

	url := strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(req.Dataset, "/")
	sum, size, err := downloadFile(ctx, f.Client, url, dest, f.Token, req.WantSHA256, req.Progress)
	if err != nil {
		return nil, err
	}
	return &Result{LocalPath: dest, SHA256: sum, Size: size, Source: model.SourceRaw}, nil
}

// downloadFile streams url into dest via a ".part" temporary, hashing while
// copying. When want is non-empty the hash must match or the temporary is
// removed and ErrChecksumMismatch returned; the destination is only ever
// replaced by a verified file.
func downloadFile(ctx context.Context, client *http.Client, url, dest, token, want string, progress Progress) (string, int64, error) {
	if client == nil {
		client = defaultHTTPClient
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	tmp := dest + ".part"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, err
	}

	h := sha256.New()
	w := io.MultiWriter(out, h)
	var body io.Reader = resp.Body
	if progress != nil {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, fn: progress}
	}

	size, err := io.Copy(w, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, err
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if want != "" && sum != want {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, url, want, sum)
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", 0, err
	}
	return sum, size, nil
}

// progressReader reports cumulative byte counts to a Progress callback.
type progressReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    Progress
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		p.fn(p.done, p.total)
	}
	return n, err
}

// hashFile returns the sha256 and size of an existing file.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
