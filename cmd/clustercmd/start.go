// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/deploy"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

var bootConfig models.FullnodeConfig

func addBootConfigFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&bootConfig.FullnodeExitEnabled, "enable-rpc-exit", false, "let nodes be asked to exit over rpc")
	cmd.Flags().BoolVar(&bootConfig.RPCGossipPushEnabled, "enable-rpc-gossip-push", false, "expose the push-gossip-entry control call")
	cmd.Flags().BoolVar(&bootConfig.RPCGossipRefreshActiveSetEnabled, "enable-rpc-gossip-refresh-active-set", false, "expose the refresh-active-set control call")
	cmd.Flags().BoolVar(&bootConfig.LeaderRotationEnabled, "leader-rotation", false, "enable leader rotation (required for in-place updates)")
	cmd.Flags().StringSliceVar(&bootConfig.ExtraFlags, "extra-fullnode-flags", nil, "extra flags appended to every fullnode command line")
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Deploy a cluster from a topology file",
		Long: `The cluster start command deploys the topology: the bootstrap leader
first, then the remaining fullnodes with bounded fan-out, then the
sanity battery, and finally the bench clients. A failed sanity battery
blocks the clients but leaves the cluster running for inspection.`,
		Args: cobra.NoArgs,
		RunE: startCluster,
	}
	addArtifactFlags(cmd)
	addSanityFlags(cmd)
	addBootConfigFlags(cmd)
	return cmd
}

func startCluster(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	orch, err := orchestrator(runID())
	if err != nil {
		return err
	}
	ux.Logger.PrintToUser("Deploying cluster %s (%d nodes)", topo.Name, len(topo.Nodes))
	deployed, err := orch.Run(cmd.Context(), topo, bootConfig)
	if err != nil {
		reportDeployError(err)
		return err
	}
	printTopology(deployed)
	return nil
}

// reportDeployError surfaces the per-node failure breakdown and the
// fetched log locations before the error bubbles up.
func reportDeployError(err error) {
	var depErr *deploy.Error
	if !errors.As(err, &depErr) {
		return
	}
	ux.Logger.RedXToUser("Deployment failed at stage %s", depErr.Stage)
	for _, addr := range depErr.Addresses() {
		ux.Logger.PrintToUser("  %s: %s", addr, depErr.Failures[addr])
		if path, ok := depErr.Logs[addr]; ok {
			ux.Logger.PrintToUser("    log: %s", path)
		}
	}
}
