// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package lifecycle

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nimbuschain/cli/pkg/artifact"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

func TestMain(m *testing.M) {
	ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
	os.Exit(m.Run())
}

type fakeHost struct {
	mu      sync.Mutex
	scripts []string
	uploads []string
	// commandErr fails any script containing its key
	commandErr map[string]error
	pgid       string
}

func (f *fakeHost) Command(script string, _ []string, _ time.Duration) ([]byte, error) {
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	f.mu.Unlock()
	for key, err := range f.commandErr {
		if strings.Contains(script, key) {
			return nil, err
		}
	}
	if strings.Contains(script, "PGID=") {
		pgid := f.pgid
		if pgid == "" {
			pgid = "4242"
		}
		return []byte("PGID=" + pgid + "\n"), nil
	}
	return nil, nil
}

func (f *fakeHost) Upload(local, remote string, _ time.Duration) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, remote)
	f.mu.Unlock()
	return nil
}

func (f *fakeHost) Download(remote, local string, _ time.Duration) error {
	return os.WriteFile(local, []byte("log\n"), 0o644)
}

func (f *fakeHost) MkdirAll(string, time.Duration) error { return nil }

func testController(f *fakeHost) *Controller {
	return &Controller{
		Hosts: func(string) Executor { return f },
	}
}

func testEntryPoint(t *testing.T) models.ContactInfo {
	t.Helper()
	ep, err := models.NewContactInfo("leader", "10.0.0.1:8001", "10.0.0.1:8899", "")
	require.NoError(t, err)
	return ep
}

func TestStartLaunchesAndRecordsPgid(t *testing.T) {
	f := &fakeHost{pgid: "777"}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode}

	err := c.Start(context.Background(), node, &artifact.Bundle{Dir: t.TempDir()}, models.FullnodeConfig{}, testEntryPoint(t))
	require.NoError(t, err)
	require.Equal(t, models.StateRunning, node.State())
	require.Equal(t, 777, node.Pgid)
	require.NotEmpty(t, f.uploads)

	// reset ran before launch
	require.GreaterOrEqual(t, len(f.scripts), 2)
	require.Contains(t, f.scripts[0], "mkdir -p")
}

func TestStartFailureMarksNodeFailed(t *testing.T) {
	f := &fakeHost{commandErr: map[string]error{"nohup": errors.New("spawn refused")}}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode}

	err := c.Start(context.Background(), node, &artifact.Bundle{Dir: t.TempDir()}, models.FullnodeConfig{}, testEntryPoint(t))
	require.Error(t, err)
	require.Equal(t, models.StateFailed, node.State())
}

func TestStopIsIdempotentAndSwallowsFailures(t *testing.T) {
	f := &fakeHost{commandErr: map[string]error{"kill": errors.New("connection refused")}}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode}

	c.Stop(context.Background(), node)
	require.Equal(t, models.StateStopped, node.State())

	// second stop on an already-stopped node succeeds and leaves it stopped
	c.Stop(context.Background(), node)
	require.Equal(t, models.StateStopped, node.State())
}

func TestStopKillsProcessGroupBeforePatternFallback(t *testing.T) {
	f := &fakeHost{}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode}

	c.Stop(context.Background(), node)
	require.Len(t, f.scripts, 1)
	script := f.scripts[0]
	pgKill := strings.Index(script, `kill -- "-$pgid"`)
	patternKill := strings.Index(script, "pkill -f")
	require.Greater(t, pgKill, -1)
	require.Greater(t, patternKill, pgKill)
}

func TestRoleCommand(t *testing.T) {
	ep := models.ContactInfo{ID: "leader", Gossip: "10.0.0.1:8001", RPC: "10.0.0.1:8899"}
	cfg := models.FullnodeConfig{RPCGossipPushEnabled: true}

	tests := []struct {
		name       string
		role       models.NodeRole
		wantBinary string
		wantArg    string
	}{
		{name: "leader", role: models.RoleBootstrapLeader, wantBinary: "nimbus-fullnode", wantArg: "--bootstrap-leader"},
		{name: "fullnode", role: models.RoleFullnode, wantBinary: "nimbus-fullnode", wantArg: "--entrypoint"},
		{name: "blockstreamer", role: models.RoleBlockstreamer, wantBinary: "nimbus-fullnode", wantArg: "--blockstream"},
		{name: "client", role: models.RoleClient, wantBinary: "nimbus-bench-client", wantArg: "--entrypoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, args := roleCommand(&models.NodeRecord{Address: "h", Role: tt.role}, cfg, ep)
			require.Equal(t, tt.wantBinary, bin)
			require.Contains(t, strings.Join(args, " "), tt.wantArg)
		})
	}

	// boot-time RPC surfaces reach the fullnode command line
	_, args := roleCommand(&models.NodeRecord{Address: "h", Role: models.RoleFullnode}, cfg, ep)
	require.Contains(t, strings.Join(args, " "), "--enable-rpc-gossip-push")
}

func TestParsePgid(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{name: "plain", out: "PGID=123\n", want: 123},
		{name: "with noise", out: "warning: something\nPGID=9\n", want: 9},
		{name: "missing", out: "launched\n", wantErr: true},
		{name: "garbage value", out: "PGID=abc\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePgid([]byte(tt.out))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFetchLogCreatesAlias(t *testing.T) {
	f := &fakeHost{}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode, Pgid: 555}
	dir := t.TempDir()

	path, err := c.FetchLog(node, dir)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Contains(t, path, "fullnode-10.0.0.2.log")
	require.FileExists(t, dir+"/pgid-555.log")
}

func TestLaunchScriptCreatesPgidLogAlias(t *testing.T) {
	f := &fakeHost{pgid: "777"}
	c := testController(f)
	node := &models.NodeRecord{Address: "10.0.0.1", Role: models.RoleBootstrapLeader}

	err := c.Start(context.Background(), node, &artifact.Bundle{Dir: t.TempDir()}, models.FullnodeConfig{}, testEntryPoint(t))
	require.NoError(t, err)

	launch := f.scripts[len(f.scripts)-1]
	// the alias is created on the node at launch time, keyed by the
	// captured process group
	require.Contains(t, launch, "ln -sf")
	require.Contains(t, launch, "pgid-$pgid.log")
}
