// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package models contains data structures and types used throughout the CLI.
package models

import (
	"fmt"
	"net"
)

// ContactInfo is the immutable identity of a node on the cluster: its
// gossip address, its client-facing RPC address and any further service
// endpoints. It is produced by discovery or by the deployment
// orchestrator and is never mutated afterwards.
type ContactInfo struct {
	// ID is the node's public identity, as advertised over gossip.
	ID string `json:"id" yaml:"id"`
	// Gossip is the host:port the node gossips on.
	Gossip string `json:"gossip" yaml:"gossip"`
	// RPC is the client-facing host:port serving the control plane.
	RPC string `json:"rpc" yaml:"rpc"`
	// TPU is the transaction ingest host:port.
	TPU string `json:"tpu" yaml:"tpu"`
}

// NewContactInfo builds a ContactInfo and verifies every endpoint is a
// well-formed network address.
func NewContactInfo(id, gossip, rpc, tpu string) (ContactInfo, error) {
	c := ContactInfo{ID: id, Gossip: gossip, RPC: rpc, TPU: tpu}
	if err := c.Check(); err != nil {
		return ContactInfo{}, err
	}
	return c, nil
}

// Check returns an error unless every populated endpoint is a valid
// host:port with a non-zero port.
func (c ContactInfo) Check() error {
	for _, addr := range []string{c.Gossip, c.RPC, c.TPU} {
		if addr == "" {
			continue
		}
		if !ValidAddress(addr) {
			return fmt.Errorf("contact %q carries malformed address %q", c.ID, addr)
		}
	}
	if c.Gossip == "" {
		return fmt.Errorf("contact %q carries no gossip address", c.ID)
	}
	return nil
}

// ValidAddress reports whether addr is a usable host:port. Zeroed ports
// and unparseable strings are the usual markers of a bogus gossip
// advertisement and are rejected.
func ValidAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if p, err := net.LookupPort("tcp", port); err != nil || p == 0 {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		return false
	}
	return true
}

// RPCHostPort returns the contact's client-facing endpoint as an
// http base URL.
func (c ContactInfo) RPCHostPort() string {
	return "http://" + c.RPC
}

func (c ContactInfo) String() string {
	return fmt.Sprintf("%s (gossip %s, rpc %s)", c.ID, c.Gossip, c.RPC)
}

// DiscoveredSet is the subset of cluster contacts observed via gossip
// at one point in time. It is a lower bound on membership, never a
// completeness guarantee, and is not cached across discovery calls.
type DiscoveredSet []ContactInfo

// IDs returns the discovered node identities.
func (s DiscoveredSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, c := range s {
		ids = append(ids, c.ID)
	}
	return ids
}
