// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sanity runs the post-deployment health battery that gates
// client startup. It is non-destructive: a failing battery reports and
// leaves the cluster running for inspection.
package sanity

import (
	"context"
	"fmt"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/lifecycle"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/rpcclient"
	"github.com/nimbuschain/cli/pkg/ux"
)

// Error is a failed sanity battery. It blocks client startup but
// never tears down already-running nodes.
type Error struct {
	Check string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sanity check %s failed: %v", e.Check, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HealthQuerier is the liveness probe the checker consumes.
type HealthQuerier interface {
	Health(ctx context.Context) error
}

// MemberDiscoverer snapshots cluster membership for the node-count
// check.
type MemberDiscoverer interface {
	Discover(entryPoint models.ContactInfo, expectedCount int) models.DiscoveredSet
}

// Checker runs a fixed battery against one running fullnode. Each
// check carries its own independent skip flag.
type Checker struct {
	SkipLedgerVerify    bool
	SkipValidatorSanity bool
	// RejectExtraNodes makes more-than-expected discovered members a
	// failure instead of a curiosity. Independent of the other flags.
	RejectExtraNodes bool

	Hosts      lifecycle.HostFactory
	Discoverer MemberDiscoverer
	// NewHealthClient overrides control-plane client construction,
	// for tests.
	NewHealthClient func(models.ContactInfo) HealthQuerier
}

func (c *Checker) healthClient(contact models.ContactInfo) HealthQuerier {
	if c.NewHealthClient != nil {
		return c.NewHealthClient(contact)
	}
	return rpcclient.New(contact)
}

// Check runs the battery against target, reachable at contact, on a
// cluster expected to hold expectedNodes members. The first failing
// check is returned as an *Error; skipped checks are skipped
// independently of one another.
func (c *Checker) Check(ctx context.Context, target *models.NodeRecord, contact models.ContactInfo, expectedNodes int) error {
	if c.SkipLedgerVerify {
		ux.Logger.Info("skipping ledger verification")
	} else if err := c.verifyLedger(target); err != nil {
		return &Error{Check: "ledger-verify", Err: err}
	}

	if c.SkipValidatorSanity {
		ux.Logger.Info("skipping fullnode sanity")
	} else if err := c.healthClient(contact).Health(ctx); err != nil {
		return &Error{Check: "fullnode-sanity", Err: err}
	}

	if err := c.checkNodeCount(contact, expectedNodes); err != nil {
		return &Error{Check: "node-count", Err: err}
	}
	return nil
}

// verifyLedger runs the ledger tool against the node's ledger on its
// own host.
func (c *Checker) verifyLedger(target *models.NodeRecord) error {
	host := c.Hosts(target.Address)
	script := fmt.Sprintf("%s/%s verify --ledger %q",
		constants.RemoteBinDir, constants.LedgerToolBinName, constants.RemoteLedgerDir)
	if out, err := host.Command(script, nil, constants.SSHScriptTimeout); err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func (c *Checker) checkNodeCount(contact models.ContactInfo, expected int) error {
	if expected <= 0 {
		return nil
	}
	// in reject-extra mode let discovery look past the expected count
	// instead of ending the snapshot right at it
	want := expected
	if c.RejectExtraNodes {
		want = expected + 1
	}
	set := c.Discoverer.Discover(contact, want)
	if len(set) < expected {
		return fmt.Errorf("discovered %d nodes, expected at least %d", len(set), expected)
	}
	if c.RejectExtraNodes && len(set) > expected {
		return fmt.Errorf("discovered %d nodes, expected exactly %d", len(set), expected)
	}
	return nil
}
