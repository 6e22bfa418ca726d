// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossip discovers live cluster members through a single known
// entry point. Discovery is a best-effort snapshot bounded by a fixed
// window; it never promises completeness and never blocks past the
// window, no matter how many advertisements arrive.
package gossip

import (
	"context"
	"time"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/rpcclient"
)

// NodesQuerier is the one control-plane call discovery consumes.
type NodesQuerier interface {
	ClusterNodes(ctx context.Context) ([]models.ContactInfo, error)
}

// Discoverer snapshots cluster membership as seen from one entry
// point.
type Discoverer struct {
	// Window bounds the whole snapshot. Zero means the default. Only
	// the window's expiry cancels a discovery; an external signal
	// cannot.
	Window time.Duration
	// Interval between membership polls.
	Interval time.Duration
	// SelfID, when set, drops advertisements referring to the probe
	// itself.
	SelfID string
	// NewClient overrides control-plane client construction, for
	// tests.
	NewClient func(models.ContactInfo) NodesQuerier
}

func (d *Discoverer) window() time.Duration {
	if d.Window > 0 {
		return d.Window
	}
	return constants.DefaultDiscoveryWindow
}

func (d *Discoverer) interval() time.Duration {
	if d.Interval > 0 {
		return d.Interval
	}
	return 500 * time.Millisecond
}

func (d *Discoverer) client(contact models.ContactInfo) NodesQuerier {
	if d.NewClient != nil {
		return d.NewClient(contact)
	}
	return rpcclient.New(contact)
}

// Discover contacts the entry point and collects the membership the
// gossip layer naturally propagates, for the fixed window. It returns
// whatever was observed: a partial set is an expected outcome, not an
// error. Reaching expectedCount ends the snapshot early; it is never
// waited for.
func (d *Discoverer) Discover(entryPoint models.ContactInfo, expectedCount int) models.DiscoveredSet {
	// The window is the sole cancellation source.
	ctx, cancel := context.WithTimeout(context.Background(), d.window())
	defer cancel()

	client := d.client(entryPoint)
	seen := map[string]models.ContactInfo{}

	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()
	for {
		nodes, err := client.ClusterNodes(ctx)
		if err == nil {
			for _, n := range nodes {
				if !d.usable(n) {
					continue
				}
				if _, ok := seen[n.ID]; !ok {
					seen[n.ID] = n
				}
			}
		}
		if expectedCount > 0 && len(seen) >= expectedCount {
			break
		}
		select {
		case <-ctx.Done():
			return collect(seen)
		case <-ticker.C:
		}
	}
	return collect(seen)
}

// usable drops malformed and self-referential advertisements. A
// candidate is included only if it carries a well-formed network
// address.
func (d *Discoverer) usable(c models.ContactInfo) bool {
	if c.ID == "" || c.Check() != nil {
		return false
	}
	if d.SelfID != "" && c.ID == d.SelfID {
		return false
	}
	return true
}

func collect(seen map[string]models.ContactInfo) models.DiscoveredSet {
	out := make(models.DiscoveredSet, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	return out
}
