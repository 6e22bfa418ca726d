// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package gossip

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nimbuschain/cli/pkg/models"
)

type fakeQuerier struct {
	calls atomic.Int64
	nodes func(call int64) []models.ContactInfo
	err   error
}

func (f *fakeQuerier) ClusterNodes(context.Context) ([]models.ContactInfo, error) {
	call := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.nodes(call), nil
}

func testDiscoverer(f *fakeQuerier, window time.Duration) *Discoverer {
	return &Discoverer{
		Window:    window,
		Interval:  10 * time.Millisecond,
		NewClient: func(models.ContactInfo) NodesQuerier { return f },
	}
}

var entryPoint = models.ContactInfo{ID: "entry", Gossip: "10.0.0.1:8001", RPC: "10.0.0.1:8899"}

func contact(id, host string) models.ContactInfo {
	return models.ContactInfo{ID: id, Gossip: host + ":8001", RPC: host + ":8899"}
}

func TestDiscoverReturnsEarlyAtExpectedCount(t *testing.T) {
	f := &fakeQuerier{nodes: func(int64) []models.ContactInfo {
		return []models.ContactInfo{entryPoint, contact("n2", "10.0.0.2"), contact("n3", "10.0.0.3")}
	}}
	d := testDiscoverer(f, 10*time.Second)

	start := time.Now()
	set := d.Discover(entryPoint, 3)
	require.Len(t, set, 3)
	// reaching expectedCount must not block for the full window
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestDiscoverWindowBoundsPartialResult(t *testing.T) {
	f := &fakeQuerier{nodes: func(int64) []models.ContactInfo {
		return []models.ContactInfo{entryPoint}
	}}
	d := testDiscoverer(f, 150*time.Millisecond)

	start := time.Now()
	set := d.Discover(entryPoint, 5)
	elapsed := time.Since(start)

	// a partial snapshot is an expected outcome, not an error
	require.Len(t, set, 1)
	require.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
}

func TestDiscoverDropsMalformedEntries(t *testing.T) {
	f := &fakeQuerier{nodes: func(int64) []models.ContactInfo {
		return []models.ContactInfo{
			entryPoint,
			{ID: "bad-port", Gossip: "10.0.0.9:0", RPC: "10.0.0.9:8899"},
			{ID: "no-gossip", Gossip: "", RPC: "10.0.0.10:8899"},
			{ID: "", Gossip: "10.0.0.11:8001"},
			{ID: "unspecified", Gossip: "0.0.0.0:8001"},
		}
	}}
	d := testDiscoverer(f, 100*time.Millisecond)

	set := d.Discover(entryPoint, 0)
	require.Equal(t, []string{"entry"}, set.IDs())
}

func TestDiscoverDropsSelfReferentialEntries(t *testing.T) {
	f := &fakeQuerier{nodes: func(int64) []models.ContactInfo {
		return []models.ContactInfo{entryPoint, contact("probe", "10.0.0.50")}
	}}
	d := testDiscoverer(f, 100*time.Millisecond)
	d.SelfID = "probe"

	set := d.Discover(entryPoint, 2)
	require.Equal(t, []string{"entry"}, set.IDs())
}

func TestDiscoverFloodCannotExtendWindow(t *testing.T) {
	// every poll invents new unique (well-formed) members; the window
	// must still end the snapshot on time
	f := &fakeQuerier{nodes: func(call int64) []models.ContactInfo {
		out := []models.ContactInfo{}
		for i := int64(0); i < 50; i++ {
			out = append(out, contact(
				"flood-"+time.Now().Format("150405.000000000")+"-"+string(rune('a'+i%26)),
				"10.1.0.2"))
		}
		return out
	}}
	d := testDiscoverer(f, 200*time.Millisecond)

	start := time.Now()
	_ = d.Discover(entryPoint, 0)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestDiscoverToleratesEntryPointErrors(t *testing.T) {
	f := &fakeQuerier{err: context.DeadlineExceeded}
	d := testDiscoverer(f, 100*time.Millisecond)

	set := d.Discover(entryPoint, 3)
	require.Empty(t, set)
}
