// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

// FullnodeConfig is the boot-time configuration handed to every node in
// a deployment. It is fixed at boot: any RPC surface a test scenario
// wants to drive must be enabled here before the node starts, there is
// no way to switch a surface on afterwards. All optional surfaces
// default to disabled.
type FullnodeConfig struct {
	// FullnodeExitEnabled allows a node to be asked to exit over RPC.
	FullnodeExitEnabled bool `json:"fullnodeExitEnabled" yaml:"fullnode-exit-enabled"`
	// RPCGossipPushEnabled exposes the push-gossip-entry control call.
	RPCGossipPushEnabled bool `json:"rpcGossipPushEnabled" yaml:"rpc-gossip-push-enabled"`
	// RPCGossipRefreshActiveSetEnabled exposes the refresh-active-set
	// control call.
	RPCGossipRefreshActiveSetEnabled bool `json:"rpcGossipRefreshActiveSetEnabled" yaml:"rpc-gossip-refresh-active-set-enabled"`
	// LeaderRotationEnabled must be set for update-in-place deploys,
	// which restart the bootstrap leader while the cluster keeps making
	// progress.
	LeaderRotationEnabled bool `json:"leaderRotationEnabled" yaml:"leader-rotation-enabled"`
	// ExtraFlags are appended verbatim to the fullnode command line.
	ExtraFlags []string `json:"extraFlags,omitempty" yaml:"extra-flags,omitempty"`
}

// BootArgs renders the config as fullnode command line arguments.
func (c FullnodeConfig) BootArgs() []string {
	args := []string{}
	if c.FullnodeExitEnabled {
		args = append(args, "--enable-rpc-exit")
	}
	if c.RPCGossipPushEnabled {
		args = append(args, "--enable-rpc-gossip-push")
	}
	if c.RPCGossipRefreshActiveSetEnabled {
		args = append(args, "--enable-rpc-gossip-refresh-active-set")
	}
	if !c.LeaderRotationEnabled {
		args = append(args, "--no-leader-rotation")
	}
	return append(args, c.ExtraFlags...)
}
