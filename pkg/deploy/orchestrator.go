// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deploy sequences a whole cluster from cold start to a
// converged running state: bootstrap leader first, followers with
// bounded fan-out, a barrier, a sanity gate, then fire-and-forget
// clients.
package deploy

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nimbuschain/cli/pkg/artifact"
	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

// ArtifactResolver stages the deployable binaries for a run.
type ArtifactResolver interface {
	Resolve(ctx context.Context) (*artifact.Bundle, error)
}

// Lifecycle is the per-node start/stop surface the orchestrator
// drives.
type Lifecycle interface {
	Start(ctx context.Context, node *models.NodeRecord, bundle *artifact.Bundle, cfg models.FullnodeConfig, entryPoint models.ContactInfo) error
	Stop(ctx context.Context, node *models.NodeRecord)
	FetchLog(node *models.NodeRecord, destDir string) (string, error)
}

// SanityRunner gates client startup after the launch barrier.
type SanityRunner interface {
	Check(ctx context.Context, target *models.NodeRecord, contact models.ContactInfo, expectedNodes int) error
}

// Orchestrator runs one deployment. The bootstrap leader launches
// synchronously; remaining nodes launch as independent units of work
// bounded by an explicit concurrency limiter plus a stagger pause
// protecting the leader's artifact-serving capacity.
type Orchestrator struct {
	Artifacts ArtifactResolver
	Nodes     Lifecycle
	Sanity    SanityRunner

	// LaunchConcurrency caps in-flight follower launches. Zero means
	// the default.
	LaunchConcurrency int64
	// StaggerEvery / StaggerPause insert a deliberate pause after
	// every StaggerEvery launch dispatches. This is backpressure, not
	// a nicety: it rate-limits inflow to the leader.
	StaggerEvery int
	StaggerPause time.Duration

	// LogDir is the run-scoped directory remote logs are surfaced
	// into on failure.
	LogDir string
}

func (o *Orchestrator) launchConcurrency() int64 {
	if o.LaunchConcurrency > 0 {
		return o.LaunchConcurrency
	}
	return constants.DefaultLaunchConcurrency
}

func (o *Orchestrator) staggerEvery() int {
	if o.StaggerEvery > 0 {
		return o.StaggerEvery
	}
	return constants.DefaultStaggerEvery
}

func (o *Orchestrator) staggerPause() time.Duration {
	if o.StaggerPause > 0 {
		return o.StaggerPause
	}
	return constants.DefaultStaggerPause
}

// EntryPointFor derives the cluster entry point contact from the
// bootstrap leader's address.
func EntryPointFor(leader *models.NodeRecord) models.ContactInfo {
	return models.ContactInfo{
		ID:     "leader-" + leader.Address,
		Gossip: leader.Address + ":" + strconv.Itoa(constants.DefaultGossipPort),
		RPC:    leader.Address + ":" + strconv.Itoa(constants.DefaultRPCPort),
	}
}

// Run deploys the topology. It returns the run's own topology copy -
// the caller's topology is never mutated - and the deployment error,
// if any. On return every node of the run copy is in a terminal or
// Running state.
func (o *Orchestrator) Run(ctx context.Context, topology *models.ClusterTopology, cfg models.FullnodeConfig) (*models.ClusterTopology, error) {
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	topo := topology.Copy()

	bundle, err := o.Artifacts.Resolve(ctx)
	if err != nil {
		// fatal: nothing has been started
		return topo, err
	}

	leader := topo.Leader()
	entryPoint := EntryPointFor(leader)
	ux.Logger.PrintToUser("Starting bootstrap leader on %s", leader.Address)
	if err := o.Nodes.Start(ctx, leader, bundle, cfg, entryPoint); err != nil {
		// no value in starting followers without a leader
		return topo, &Error{
			Stage:    "bootstrap-leader",
			Failures: map[string]error{leader.Address: err},
			Logs:     o.surfaceLogs([]*models.NodeRecord{leader}),
		}
	}

	// fullnodes first, then blockstreamer-role nodes
	followers := append(topo.ByRole(models.RoleFullnode), topo.ByRole(models.RoleBlockstreamer)...)
	if err := o.launchAll(ctx, followers, bundle, cfg, entryPoint); err != nil {
		return topo, err
	}

	if o.Sanity != nil {
		target := leader
		if fullnodes := topo.ByRole(models.RoleFullnode); len(fullnodes) > 0 {
			target = fullnodes[0]
		}
		expected := len(topo.Nodes) - len(topo.ByRole(models.RoleClient))
		if err := o.Sanity.Check(ctx, target, contactFor(target), expected); err != nil {
			// cluster is left running for inspection
			return topo, err
		}
	}

	// client startup never gates run success, but every launch must be
	// issued before returning: a one-shot process exits right after Run
	var clients sync.WaitGroup
	for _, client := range topo.ByRole(models.RoleClient) {
		client := client
		clients.Add(1)
		go func() {
			defer clients.Done()
			if err := o.Nodes.Start(ctx, client, bundle, cfg, entryPoint); err != nil {
				ux.Logger.Error("client start on %s: %v", client.Address, err)
			}
		}()
	}
	clients.Wait()
	ux.Logger.GreenCheckmarkToUser("Cluster %s deployed: %d node(s)", topo.Name, len(topo.Nodes))
	return topo, nil
}

// launchAll starts the given nodes as independent units of work,
// bounded by the concurrency limiter and the stagger pause, then
// barrier-joins them all. Failed launches are collected, never
// swallowed.
func (o *Orchestrator) launchAll(ctx context.Context, nodes []*models.NodeRecord, bundle *artifact.Bundle, cfg models.FullnodeConfig, entryPoint models.ContactInfo) error {
	if len(nodes) == 0 {
		return nil
	}
	var (
		g       errgroup.Group
		sem     = semaphore.NewWeighted(o.launchConcurrency())
		results = &models.NodeResults{}
	)
	for i, node := range nodes {
		if err := sem.Acquire(ctx, 1); err != nil {
			results.AddResult(node.Address, nil, err)
			_ = node.Transition(models.StateFailed)
			continue
		}
		node := node
		g.Go(func() error {
			defer sem.Release(1)
			results.AddResult(node.Address, nil, o.Nodes.Start(ctx, node, bundle, cfg, entryPoint))
			return nil
		})
		if (i+1)%o.staggerEvery() == 0 && i != len(nodes)-1 {
			time.Sleep(o.staggerPause())
		}
	}
	_ = g.Wait()

	if !results.HasErrors() {
		return nil
	}
	failed := results.ErrorMap()
	var failedNodes []*models.NodeRecord
	for _, n := range nodes {
		if _, ok := failed[n.Address]; ok {
			failedNodes = append(failedNodes, n)
		}
	}
	return &Error{
		Stage:    "launch",
		Failures: failed,
		Logs:     o.surfaceLogs(failedNodes),
	}
}

// surfaceLogs pulls remote logs for failed nodes, best effort.
func (o *Orchestrator) surfaceLogs(nodes []*models.NodeRecord) map[string]string {
	logs := map[string]string{}
	if o.LogDir == "" {
		return logs
	}
	for _, n := range nodes {
		if path, err := o.Nodes.FetchLog(n, o.LogDir); err == nil {
			logs[n.Address] = path
		}
	}
	return logs
}

// Update replaces a running cluster's software in place: for each
// topology member in order, including the leader, the running node is
// stopped and its replacement started before moving on. It requires
// leader rotation to be enabled in the boot config and fails fast,
// with zero side effects, when it is not.
func (o *Orchestrator) Update(ctx context.Context, topology *models.ClusterTopology, cfg models.FullnodeConfig) (*models.ClusterTopology, error) {
	if !cfg.LeaderRotationEnabled {
		return nil, ErrLeaderRotationDisabled
	}
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	topo := topology.Copy()

	bundle, err := o.Artifacts.Resolve(ctx)
	if err != nil {
		return topo, err
	}

	entryPoint := EntryPointFor(topo.Leader())
	for i, node := range topo.Nodes {
		if node.Role == models.RoleClient {
			continue
		}
		ux.Logger.PrintToUser("Updating %s on %s", node.Role, node.Address)
		o.Nodes.Stop(ctx, node)
		replacement := &models.NodeRecord{Address: node.Address, Role: node.Role}
		if err := o.Nodes.Start(ctx, replacement, bundle, cfg, entryPoint); err != nil {
			topo.Nodes[i] = replacement
			return topo, &Error{
				Stage:    fmt.Sprintf("update %s", node.Address),
				Failures: map[string]error{node.Address: err},
				Logs:     o.surfaceLogs([]*models.NodeRecord{replacement}),
			}
		}
		topo.Nodes[i] = replacement
	}
	ux.Logger.GreenCheckmarkToUser("Cluster %s updated in place", topo.Name)
	return topo, nil
}

func contactFor(node *models.NodeRecord) models.ContactInfo {
	return models.ContactInfo{
		ID:     string(node.Role) + "-" + node.Address,
		Gossip: node.Address + ":" + strconv.Itoa(constants.DefaultGossipPort),
		RPC:    node.Address + ":" + strconv.Itoa(constants.DefaultRPCPort),
	}
}
