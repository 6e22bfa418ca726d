// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package utils holds shared helpers for the e2e suites. The suites
// run against a live, already-deployed cluster described by
// environment variables; without them every spec is skipped.
package utils

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/rpcclient"
	"github.com/nimbuschain/cli/pkg/scenario"
)

const (
	// EntryPointEnvVar names the gossip host:port of a running
	// cluster's entry point.
	EntryPointEnvVar = "NIMBUS_E2E_ENTRYPOINT"
	// RPCEnvVar names the entry point's control-plane host:port.
	RPCEnvVar = "NIMBUS_E2E_RPC"
	// NodeCountEnvVar is the deployed cluster's expected size.
	NodeCountEnvVar = "NIMBUS_E2E_NODES"
	// KeypairEnvVar points at the keypair used for liveness transfers.
	KeypairEnvVar = "NIMBUS_E2E_KEYPAIR"
	// PubkeyEnvVar is the keypair's public key.
	PubkeyEnvVar = "NIMBUS_E2E_PUBKEY"
	// FaucetEnvVar optionally overrides the faucet http endpoint used
	// to fund an empty credential.
	FaucetEnvVar = "NIMBUS_E2E_FAUCET"

	// airdropAmount is the base-unit top-up requested for an unfunded
	// credential.
	airdropAmount = 1_000_000
)

// ClusterEnv assembles a scenario environment from the process
// environment. It reports false when no live cluster is configured.
func ClusterEnv() (scenario.Env, bool, error) {
	entryGossip := os.Getenv(EntryPointEnvVar)
	if entryGossip == "" {
		return scenario.Env{}, false, nil
	}
	entryRPC := os.Getenv(RPCEnvVar)
	if entryRPC == "" {
		return scenario.Env{}, false, fmt.Errorf("%s is set but %s is not", EntryPointEnvVar, RPCEnvVar)
	}
	nodes, err := strconv.Atoi(os.Getenv(NodeCountEnvVar))
	if err != nil || nodes <= 0 {
		return scenario.Env{}, false, fmt.Errorf("%s must be a positive node count", NodeCountEnvVar)
	}
	return scenario.Env{
		EntryPoint: models.ContactInfo{
			ID:     "e2e-entrypoint",
			Gossip: entryGossip,
			RPC:    entryRPC,
		},
		Credential: models.FundedCredential{
			Pubkey:      os.Getenv(PubkeyEnvVar),
			KeypairPath: os.Getenv(KeypairEnvVar),
		},
		NodeCount: nodes,
	}, true, nil
}

// EnsureFunded tops up the credential through the cluster faucet when
// its balance is empty, so suites do not depend on out-of-band
// funding.
func EnsureFunded(ctx context.Context, env scenario.Env) error {
	if env.Credential.Pubkey == "" {
		return fmt.Errorf("%s is not set", PubkeyEnvVar)
	}
	entry := rpcclient.New(env.EntryPoint)
	balance, err := entry.Balance(ctx, env.Credential.Pubkey)
	if err != nil {
		return err
	}
	if balance > 0 {
		return nil
	}
	faucet := rpcclient.NewForEndpoint(faucetEndpoint(env.EntryPoint))
	sig, err := faucet.RequestAirdrop(ctx, env.Credential.Pubkey, airdropAmount)
	if err != nil {
		return err
	}
	return entry.WaitForConfirmation(ctx, sig, time.Minute)
}

// faucetEndpoint resolves the faucet http endpoint: the env override
// when present, otherwise the entry point host on the standard faucet
// port.
func faucetEndpoint(entry models.ContactInfo) string {
	if ep := os.Getenv(FaucetEnvVar); ep != "" {
		return ep
	}
	host, _, err := net.SplitHostPort(entry.RPC)
	if err != nil {
		host = entry.RPC
	}
	return fmt.Sprintf("http://%s:%d", host, constants.DefaultFaucetPort)
}
