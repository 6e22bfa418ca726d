// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package sanity

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nimbuschain/cli/pkg/lifecycle"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

func TestMain(m *testing.M) {
	ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
	os.Exit(m.Run())
}

type fakeLedgerHost struct {
	err     error
	scripts []string
}

func (f *fakeLedgerHost) Command(script string, _ []string, _ time.Duration) ([]byte, error) {
	f.scripts = append(f.scripts, script)
	return nil, f.err
}
func (f *fakeLedgerHost) Upload(string, string, time.Duration) error   { return nil }
func (f *fakeLedgerHost) Download(string, string, time.Duration) error { return nil }
func (f *fakeLedgerHost) MkdirAll(string, time.Duration) error         { return nil }

type fakeHealth struct{ err error }

func (f *fakeHealth) Health(context.Context) error { return f.err }

type fakeDiscoverer struct{ set models.DiscoveredSet }

func (f *fakeDiscoverer) Discover(models.ContactInfo, int) models.DiscoveredSet { return f.set }

func members(n int) models.DiscoveredSet {
	set := models.DiscoveredSet{}
	for i := 0; i < n; i++ {
		set = append(set, models.ContactInfo{ID: string(rune('a' + i)), Gossip: "10.0.0.1:8001"})
	}
	return set
}

func checker(host *fakeLedgerHost, health error, set models.DiscoveredSet) *Checker {
	return &Checker{
		Hosts:           func(string) lifecycle.Executor { return host },
		Discoverer:      &fakeDiscoverer{set: set},
		NewHealthClient: func(models.ContactInfo) HealthQuerier { return &fakeHealth{err: health} },
	}
}

var (
	target  = &models.NodeRecord{Address: "10.0.0.2", Role: models.RoleFullnode}
	contact = models.ContactInfo{ID: "n1", Gossip: "10.0.0.2:8001", RPC: "10.0.0.2:8899"}
)

func TestCheckPasses(t *testing.T) {
	c := checker(&fakeLedgerHost{}, nil, members(3))
	require.NoError(t, c.Check(context.Background(), target, contact, 3))
}

func TestLedgerFailureReported(t *testing.T) {
	c := checker(&fakeLedgerHost{err: errors.New("ledger corrupt")}, nil, members(3))
	err := c.Check(context.Background(), target, contact, 3)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "ledger-verify", serr.Check)
}

func TestMissingNodesReported(t *testing.T) {
	c := checker(&fakeLedgerHost{}, nil, members(2))
	err := c.Check(context.Background(), target, contact, 3)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "node-count", serr.Check)
}

func TestRejectExtraNodes(t *testing.T) {
	c := checker(&fakeLedgerHost{}, nil, members(4))
	c.RejectExtraNodes = true
	err := c.Check(context.Background(), target, contact, 3)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "node-count", serr.Check)

	// without the flag, extra members are fine
	c.RejectExtraNodes = false
	require.NoError(t, c.Check(context.Background(), target, contact, 3))
}

func TestSkipFlagsAreIndependent(t *testing.T) {
	// reject-extra-nodes alone must not disable ledger verification
	host := &fakeLedgerHost{err: errors.New("ledger corrupt")}
	c := checker(host, nil, members(3))
	c.RejectExtraNodes = true
	err := c.Check(context.Background(), target, contact, 3)
	var serr *Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "ledger-verify", serr.Check)

	// skipping ledger verification must not skip fullnode sanity
	c = checker(&fakeLedgerHost{}, errors.New("unhealthy"), members(3))
	c.SkipLedgerVerify = true
	err = c.Check(context.Background(), target, contact, 3)
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "fullnode-sanity", serr.Check)

	// skipping fullnode sanity still verifies the ledger
	host = &fakeLedgerHost{}
	c = checker(host, errors.New("unhealthy"), members(3))
	c.SkipValidatorSanity = true
	require.NoError(t, c.Check(context.Background(), target, contact, 3))
	require.NotEmpty(t, host.scripts)
}
