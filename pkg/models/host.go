// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/melbahja/goph"
	"golang.org/x/crypto/ssh"

	"github.com/nimbuschain/cli/pkg/constants"
)

// Host is one ssh-reachable machine a node runs on. Remote operations
// return structured results; nothing here parses free-form shell
// output beyond what a specific command contractually prints.
type Host struct {
	// Address is the bare hostname or IP, without port.
	Address string
	SSHUser string
	KeyPath string

	mu     sync.Mutex
	client *goph.Client
}

// NewHost builds a Host using the cluster's standard remote user.
func NewHost(address, keyPath string) *Host {
	return &Host{
		Address: address,
		SSHUser: constants.RemoteSSHUser,
		KeyPath: keyPath,
	}
}

func (h *Host) connect() (*goph.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		return h.client, nil
	}
	auth, err := goph.Key(h.KeyPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed loading ssh key %s: %w", h.KeyPath, err)
	}
	// Cluster hosts are short-lived test machines, host keys are not
	// pinned.
	client, err := goph.NewConn(&goph.Config{
		User:     h.SSHUser,
		Addr:     h.Address,
		Port:     constants.RemoteSSHPort,
		Auth:     auth,
		Timeout:  constants.SSHConnectTimeout,
		Callback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed connecting to %s: %w", h.Address, err)
	}
	h.client = client
	return client, nil
}

// Command runs script on the host through a login shell, with env
// entries of the form KEY=VALUE exported first, bounded by timeout.
// Returns combined output.
func (h *Host) Command(script string, env []string, timeout time.Duration) ([]byte, error) {
	client, err := h.connect()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd, err := client.CommandContext(ctx, "bash", "-c", script)
	if err != nil {
		return nil, err
	}
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("remote command on %s failed: %w", h.Address, err)
	}
	return out, nil
}

// Upload copies a local file to the host over sftp.
func (h *Host) Upload(localPath, remotePath string, timeout time.Duration) error {
	client, err := h.connect()
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- client.Upload(localPath, remotePath)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed uploading %s to %s:%s: %w", localPath, h.Address, remotePath, err)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("upload of %s to %s timed out after %s", localPath, h.Address, timeout)
	}
}

// Download copies a remote file to the controlling host.
func (h *Host) Download(remotePath, localPath string, timeout time.Duration) error {
	client, err := h.connect()
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- client.Download(remotePath, localPath)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed downloading %s:%s: %w", h.Address, remotePath, err)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("download of %s:%s timed out after %s", h.Address, remotePath, timeout)
	}
}

// MkdirAll creates a directory tree on the host.
func (h *Host) MkdirAll(dir string, timeout time.Duration) error {
	_, err := h.Command(fmt.Sprintf("mkdir -p %q", dir), nil, timeout)
	return err
}

// Close tears down the ssh connection. Safe to call on a Host that
// never connected.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
