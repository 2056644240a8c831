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
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/jmborr/qefdata/internal/db"
	"github.com/jmborr/qefdata/internal/logging"
	"github.com/jmborr/qefdata/internal/model"
)

// Mirror is a connection to an SFTP mirror of the data repository.
type Mirror struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// NewMirror opens an SSH connection to the mirror and starts an SFTP
// session. The presented host key must match the key pinned in the catalog.
// Authentication tries the provided private key first and falls back to a
// running SSH agent.
func NewMirror(host, user, privateKey string) (*Mirror, error) {
	// Define the host key callback once to be reused.
	hostKeyCallback := func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// The hostname passed to the callback can include the port. We need to strip it
		// to ensure we're looking up the correct key in our database.
		host, _, err := net.SplitHostPort(hostname)
		if err != nil {
			// If SplitHostPort fails, it means there was no port, so we use the original string.
			host = hostname
		}

		// The key is presented in the format "ssh-ed25519 AAA..."
		presentedKey := string(ssh.MarshalAuthorizedKey(key))

		// Check if we have a trusted key for this host in our database.
		knownKey, err := db.GetKnownHostKey(host)
		if err != nil {
			return fmt.Errorf("failed to query known_hosts database: %w", err)
		}

		// If we don't have a key, this is the first connection.
		if knownKey == "" {
			return fmt.Errorf("unknown host key for %s. run 'qefdata trust-host' to add it", host)
		}

		// If the key exists, it must match exactly.
		if knownKey != presentedKey {
			return fmt.Errorf("!!! HOST KEY MISMATCH FOR %s !!!\nRemote key presented: %s\nThis could be a man-in-the-middle attack", host, presentedKey)
		}

		return nil // Host key is trusted.
	}

	// Add port 22 if not specified.
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}
	var client *ssh.Client
	var finalErr error

	// --- Attempt 1: Use the configured private key exclusively ---
	if privateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(privateKey))
		if err != nil {
			return nil, fmt.Errorf("unable to parse private key: %w", err)
		}

		config := &ssh.ClientConfig{
			User:            user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         10 * time.Second,
		}

		client, err = ssh.Dial("tcp", addr, config)
		if err == nil {
			// Success! We connected with the configured key.
			sftpClient, sftpErr := sftp.NewClient(client)
			if sftpErr != nil {
				client.Close()
				return nil, fmt.Errorf("failed to create sftp client: %w", sftpErr)
			}
			return &Mirror{client: client, sftp: sftpClient}, nil
		}

		// If the error was not an auth failure, we should fail fast.
		if !strings.Contains(err.Error(), "unable to authenticate") {
			return nil, fmt.Errorf("connection with configured key failed: %w", err)
		}
		// It was an auth error, so we'll store it and try the agent.
		finalErr = err
	}

	// --- Attempt 2: Use the SSH agent as a fallback ---
	agentClient := getSSHAgent()
	if agentClient == nil {
		if finalErr != nil { // This means the private key auth failed before this.
			return nil, fmt.Errorf("key authentication failed, and no SSH agent available for fallback: %w", finalErr)
		}
		return nil, fmt.Errorf("no authentication method available (no private key provided and no ssh agent found)")
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("connection with ssh agent failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return &Mirror{
		client: client,
		sftp:   sftpClient,
	}, nil
}

// Close closes the underlying SSH and SFTP clients.
func (m *Mirror) Close() {
	if m.sftp != nil {
		m.sftp.Close()
	}
	if m.client != nil {
		m.client.Close()
	}
}

// Stat checks that a remote path exists. Doctor uses it as its probe.
func (m *Mirror) Stat(remotePath string) (os.FileInfo, error) {
	return m.sftp.Stat(remotePath)
}

// DownloadFile copies one remote file into localPath through a ".part"
// temporary, hashing while copying.
func (m *Mirror) DownloadFile(remotePath, localPath string) (string, int64, error) {
	src, err := m.sftp.Open(remotePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open remote file %s: %w", remotePath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", 0, err
	}
	tmp := localPath + ".part"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, err
	}

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, h), src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, fmt.Errorf("failed to download %s: %w", remotePath, err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// List walks the remote tree under root and returns the paths of all regular
// files relative to root.
func (m *Mirror) List(root string) ([]string, error) {
	var files []string
	walker := m.sftp.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
		st := walker.Stat()
		if st == nil || st.IsDir() {
			continue
		}
		rel := strings.TrimPrefix(walker.Path(), root)
		rel = strings.TrimPrefix(rel, "/")
		if rel != "" {
			files = append(files, rel)
		}
	}
	return files, nil
}

// MirrorFetcher retrieves single datasets from an SFTP mirror.
type MirrorFetcher struct {
	Host       string
	User       string
	BasePath   string
	PrivateKey string
}

// Fetch downloads one dataset from the mirror, honoring the same
// skip/verify semantics as the raw HTTP transport.
func (f *MirrorFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	dest := filepath.Join(req.DestDir, filepath.FromSlash(req.Dataset))

	if !req.Force && req.WantSHA256 != "" {
		if sum, size, err := hashFile(dest); err == nil && sum == req.WantSHA256 {
			logging.Debugf("%s already up to date, skipping download", req.Dataset)
			return &Result{LocalPath: dest, SHA256: sum, Size: size, Source: model.SourceSFTP, Skipped: true}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := NewMirror(f.Host, f.User, f.PrivateKey)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	remotePath := path.Join(f.BasePath, req.Dataset)
	sum, size, err := m.DownloadFile(remotePath, dest)
	if err != nil {
		return nil, err
	}
	if req.WantSHA256 != "" && sum != req.WantSHA256 {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, remotePath, req.WantSHA256, sum)
	}
	if req.Progress != nil {
		req.Progress(size, size)
	}
	return &Result{LocalPath: dest, SHA256: sum, Size: size, Source: model.SourceSFTP}, nil
}

// GetRemoteHostKey connects to a host just to retrieve its public key.
func GetRemoteHostKey(host string) (ssh.PublicKey, error) {
	keyChan := make(chan ssh.PublicKey, 1)

	config := &ssh.ClientConfig{
		// We don't need to authenticate for this, just start the handshake.
		User: "qefdata-probe",
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			// We got the key, send it back on the channel.
			keyChan <- key
			// Return a specific error to gracefully stop the handshake.
			return fmt.Errorf("qefdata: successfully retrieved host key")
		},
		Timeout: 5 * time.Second,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	// We expect ssh.Dial to fail with our specific error.
	_, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		// Check if it's our specific error.
		if strings.Contains(err.Error(), "qefdata: successfully retrieved host key") {
			// Success, the key is in the channel.
			return <-keyChan, nil
		}
		// It's a different, real error (e.g., connection refused).
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}

	// This case should ideally not be reached if the callback returns an error.
	return nil, fmt.Errorf("ssh.Dial succeeded unexpectedly, could not retrieve key")
}
