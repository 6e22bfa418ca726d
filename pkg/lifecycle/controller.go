// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lifecycle owns the remote start/stop primitives for single
// cluster nodes, including the node lifecycle state machine and the
// supervised-process-group model used to terminate exactly what was
// spawned.
package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nimbuschain/cli/pkg/artifact"
	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

// Executor is the slice of a remote host the controller needs.
// *models.Host implements it.
type Executor interface {
	Command(script string, env []string, timeout time.Duration) ([]byte, error)
	Upload(localPath, remotePath string, timeout time.Duration) error
	Download(remotePath, localPath string, timeout time.Duration) error
	MkdirAll(dir string, timeout time.Duration) error
}

// HostFactory resolves a topology address to an Executor.
type HostFactory func(address string) Executor

// SSHHosts returns a HostFactory backed by ssh connections using the
// given key.
func SSHHosts(keyPath string) HostFactory {
	return func(address string) Executor {
		return models.NewHost(address, keyPath)
	}
}

// Controller starts and stops individual nodes. Stop is best-effort
// and idempotent; Start performs the reset-or-reuse of prior state,
// pushes artifacts and launches the role process in a supervised
// process group.
type Controller struct {
	Hosts HostFactory
	// ReuseState relocates prior per-node state aside instead of
	// deleting it.
	ReuseState bool
	// LogVerbosity is propagated unchanged into every remote node
	// process environment.
	LogVerbosity string
}

// processNames are the last-resort pattern-termination targets; the
// recorded process group is always killed first.
var processNames = []string{
	constants.FullnodeBinName,
	constants.BenchClientBinName,
	constants.FaucetBinName,
}

// Start resets (or relocates) prior state on the node's host, pushes
// the bundle and launches the role process. On return with nil error
// the remote process has confirmed forked; it is not necessarily
// synced yet.
func (c *Controller) Start(ctx context.Context, node *models.NodeRecord, bundle *artifact.Bundle, cfg models.FullnodeConfig, entryPoint models.ContactInfo) error {
	if err := node.Transition(models.StateStarting); err != nil {
		return err
	}
	host := c.Hosts(node.Address)

	fail := func(err error) error {
		_ = node.Transition(models.StateFailed)
		return err
	}

	reset, err := renderScript("shell/resetState.sh", scriptInputs{
		BaseDir:     constants.RemoteBaseDir,
		LedgerDir:   constants.RemoteLedgerDir,
		LogDir:      constants.RemoteLogDir,
		Reuse:       c.ReuseState,
		ReuseSuffix: constants.ReusedStateSuffix,
	})
	if err != nil {
		return fail(err)
	}
	if _, err := host.Command(reset, nil, constants.SSHScriptTimeout); err != nil {
		return fail(fmt.Errorf("failed resetting state on %s: %w", node.Address, err))
	}

	if err := artifact.Push(bundle, host); err != nil {
		return fail(fmt.Errorf("failed pushing artifacts to %s: %w", node.Address, err))
	}

	binary, args := roleCommand(node, cfg, entryPoint)
	start, err := renderScript("shell/startNode.sh", scriptInputs{
		BaseDir:      constants.RemoteBaseDir,
		BinDir:       constants.RemoteBinDir,
		LedgerDir:    constants.RemoteLedgerDir,
		LogDir:       constants.RemoteLogDir,
		PgidFile:     constants.RemotePgidFile,
		Binary:       binary,
		Args:         strings.Join(args, " "),
		LogName:      logFileName(node),
		LogEnvVar:    constants.LogVerbosityEnvVar,
		LogVerbosity: c.LogVerbosity,
	})
	if err != nil {
		return fail(err)
	}

	select {
	case <-ctx.Done():
		return fail(ctx.Err())
	default:
	}

	out, err := host.Command(start, nil, constants.SSHScriptTimeout)
	if err != nil {
		return fail(fmt.Errorf("launch of %s %s failed: %w: %s", node.Role, node.Address, err, string(out)))
	}
	pgid, err := parsePgid(out)
	if err != nil {
		return fail(fmt.Errorf("launch of %s %s returned no process group: %w", node.Role, node.Address, err))
	}
	node.Pgid = pgid
	ux.Logger.Info("launched %s on %s (pgid %d)", node.Role, node.Address, pgid)
	return node.Transition(models.StateRunning)
}

// Stop terminates the node's supervised process group, then falls back
// to pattern-based termination of the known process names. It never
// propagates a failure: stopping an already-stopped or vanished node
// is a success and leaves the node Stopped. Stops on distinct nodes
// share no state and may run concurrently.
func (c *Controller) Stop(ctx context.Context, node *models.NodeRecord) {
	defer func() {
		_ = node.Transition(models.StateStopped)
	}()

	if isLoopback(node.Address) {
		killLocalByName(processNames...)
		return
	}

	stop, err := renderScript("shell/stopNode.sh", scriptInputs{
		PgidFile:     constants.RemotePgidFile,
		ProcessNames: processNames,
	})
	if err != nil {
		ux.Logger.Error("stop script render failed for %s: %v", node.Address, err)
		return
	}
	select {
	case <-ctx.Done():
		return
	default:
	}
	host := c.Hosts(node.Address)
	if _, err := host.Command(stop, nil, constants.SSHScriptTimeout); err != nil {
		// best effort only; the node may already be gone
		ux.Logger.Info("stop on %s: %v", node.Address, err)
	}
}

// FetchLog pulls the node's remote log file into destDir, named by
// role and address, and creates a pgid-keyed alias next to it.
func (c *Controller) FetchLog(node *models.NodeRecord, destDir string) (string, error) {
	host := c.Hosts(node.Address)
	remote := filepath.Join(constants.RemoteLogDir, logFileName(node))
	local := filepath.Join(destDir, logFileName(node))
	if err := host.Download(remote, local, constants.SSHFileOpsTimeout); err != nil {
		return "", err
	}
	node.LogPath = local
	if node.Pgid != 0 {
		alias := filepath.Join(destDir, fmt.Sprintf("pgid-%d.log", node.Pgid))
		_ = linkAlias(local, alias)
	}
	return local, nil
}

// logFileName names a node's log by role and address.
func logFileName(node *models.NodeRecord) string {
	return fmt.Sprintf("%s-%s.log", node.Role, strings.ReplaceAll(node.Address, ":", "-"))
}

// roleCommand maps a node's role to its binary and launch arguments.
func roleCommand(node *models.NodeRecord, cfg models.FullnodeConfig, entryPoint models.ContactInfo) (string, []string) {
	common := []string{
		"--ledger", constants.RemoteLedgerDir,
		"--rpc-port", strconv.Itoa(constants.DefaultRPCPort),
	}
	switch node.Role {
	case models.RoleBootstrapLeader:
		args := append([]string{"--bootstrap-leader"}, common...)
		return constants.FullnodeBinName, append(args, cfg.BootArgs()...)
	case models.RoleBlockstreamer:
		args := append([]string{
			"--entrypoint", entryPoint.Gossip,
			"--blockstream", "/tmp/nimbus-blockstream.sock",
			"--no-voting",
		}, common...)
		return constants.FullnodeBinName, append(args, cfg.BootArgs()...)
	case models.RoleClient:
		return constants.BenchClientBinName, []string{
			"--entrypoint", entryPoint.Gossip,
			"--duration", "0",
		}
	default:
		args := append([]string{"--entrypoint", entryPoint.Gossip}, common...)
		return constants.FullnodeBinName, append(args, cfg.BootArgs()...)
	}
}

// parsePgid extracts the single PGID=<n> line the launch wrapper
// contractually prints.
func parsePgid(out []byte) (int, error) {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "PGID="); ok {
			return strconv.Atoi(v)
		}
	}
	return 0, fmt.Errorf("no PGID line in launch output")
}

func isLoopback(address string) bool {
	return address == "localhost" || address == "127.0.0.1" || address == "::1"
}
