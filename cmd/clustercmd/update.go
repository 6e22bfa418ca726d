// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/ux"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a running cluster's software in place",
		Long: `The cluster update command rolls new software through a running
cluster node by node, leader included, without taking the cluster
down. Leader rotation must be enabled in the boot config: without it
the cluster cannot make progress while its leader restarts, and the
command refuses before touching any node.`,
		Args: cobra.NoArgs,
		RunE: updateCluster,
	}
	addArtifactFlags(cmd)
	addBootConfigFlags(cmd)
	return cmd
}

func updateCluster(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	orch, err := orchestrator(runID())
	if err != nil {
		return err
	}
	ux.Logger.PrintToUser("Updating cluster %s in place", topo.Name)
	if _, err := orch.Update(cmd.Context(), topo, bootConfig); err != nil {
		reportDeployError(err)
		return err
	}
	return nil
}
