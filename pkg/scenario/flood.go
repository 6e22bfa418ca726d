// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/nimbuschain/cli/pkg/gossip"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/rpcclient"
	"github.com/nimbuschain/cli/pkg/ux"
)

// ControlPlane is the per-node control surface scenarios drive.
type ControlPlane interface {
	PushGossipEntry(ctx context.Context, contact models.ContactInfo) error
	RefreshActiveSet(ctx context.Context) error
	RequestTransfer(ctx context.Context, cred models.FundedCredential, dest string, amount uint64) (string, error)
	WaitForConfirmation(ctx context.Context, signature string, deadline time.Duration) error
}

// MemberDiscoverer snapshots cluster membership from an entry point.
type MemberDiscoverer interface {
	Discover(entryPoint models.ContactInfo, expectedCount int) models.DiscoveredSet
}

// Toolkit builds the standard scenarios over real or test
// collaborators.
type Toolkit struct {
	Discoverer MemberDiscoverer
	// NewClient overrides control-plane client construction, for
	// tests.
	NewClient func(models.ContactInfo) ControlPlane

	// EntriesPerNode scales the flood; zero means the default of 100
	// malformed entries per expected cluster member.
	EntriesPerNode int
	// SettleTime is the pause between flooding and forcing active-set
	// refreshes.
	SettleTime time.Duration
	// ConfirmDeadline bounds the liveness transfer confirmation.
	ConfirmDeadline time.Duration
}

func (tk *Toolkit) discoverer() MemberDiscoverer {
	if tk.Discoverer != nil {
		return tk.Discoverer
	}
	return &gossip.Discoverer{}
}

func (tk *Toolkit) client(contact models.ContactInfo) ControlPlane {
	if tk.NewClient != nil {
		return tk.NewClient(contact)
	}
	return rpcclient.New(contact)
}

func (tk *Toolkit) entriesPerNode() int {
	if tk.EntriesPerNode > 0 {
		return tk.EntriesPerNode
	}
	return 100
}

func (tk *Toolkit) settleTime() time.Duration {
	if tk.SettleTime > 0 {
		return tk.SettleTime
	}
	return time.Second
}

func (tk *Toolkit) confirmDeadline() time.Duration {
	if tk.ConfirmDeadline > 0 {
		return tk.ConfirmDeadline
	}
	return 30 * time.Second
}

// GossipFlood floods the entry point's gossip table with malformed
// contact records, forces every discovered node to re-select its
// active set, then proves the cluster still confirms a 1-unit
// transfer from the funded credential: liveness is preserved under
// adversarial membership flooding.
func (tk *Toolkit) GossipFlood() Scenario {
	return Scenario{
		Name: "gossip-flood-liveness",
		Run: func(ctx context.Context, env Env) error {
			discovered := tk.discoverer().Discover(env.EntryPoint, env.NodeCount)
			ux.Logger.Info("discovered %d of %d nodes", len(discovered), env.NodeCount)

			entry := tk.client(env.EntryPoint)
			total := env.NodeCount * tk.entriesPerNode()
			for i := 0; i < total; i++ {
				bogus := models.ContactInfo{
					ID:     fmt.Sprintf("flood-%d", i),
					Gossip: "0.0.0.0:0",
					RPC:    "0.0.0.0:0",
				}
				if err := entry.PushGossipEntry(ctx, bogus); err != nil {
					return fmt.Errorf("push %d/%d rejected: %w", i+1, total, err)
				}
			}

			time.Sleep(tk.settleTime())

			for _, node := range discovered {
				if err := tk.client(node).RefreshActiveSet(ctx); err != nil {
					return fmt.Errorf("refresh-active-set on %s: %w", node.ID, err)
				}
			}

			sig, err := entry.RequestTransfer(ctx, env.Credential, "liveness-probe", 1)
			if err != nil {
				return fmt.Errorf("transfer after flood: %w", err)
			}
			if err := entry.WaitForConfirmation(ctx, sig, tk.confirmDeadline()); err != nil {
				return fmt.Errorf("transfer %s did not confirm: cluster lost liveness: %w", sig, err)
			}
			return nil
		},
	}
}

// DiscoveryBound verifies a discovery snapshot is a lower bound on
// the cluster: between zero and the expected member count, never
// more.
func (tk *Toolkit) DiscoveryBound() Scenario {
	return Scenario{
		Name: "discovery-lower-bound",
		Run: func(_ context.Context, env Env) error {
			set := tk.discoverer().Discover(env.EntryPoint, env.NodeCount)
			if len(set) > env.NodeCount {
				return fmt.Errorf("discovered %d nodes from a cluster of %d", len(set), env.NodeCount)
			}
			return nil
		},
	}
}
