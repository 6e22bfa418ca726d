// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/ux"
)

func newRestartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop a cluster and deploy it again",
		Long: `The cluster restart command stops every node of the topology and then
runs a fresh deployment with the given artifact source. With
--reuse-config the prior per-node state is set aside instead of
deleted.`,
		Args: cobra.NoArgs,
		RunE: restartCluster,
	}
	addArtifactFlags(cmd)
	addSanityFlags(cmd)
	addBootConfigFlags(cmd)
	return cmd
}

func restartCluster(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	ctl := controller()

	ux.Logger.PrintToUser("Stopping cluster %s before redeploy", topo.Name)
	var wg sync.WaitGroup
	for _, node := range topo.Nodes {
		node := node
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctl.Stop(cmd.Context(), node)
		}()
	}
	wg.Wait()

	return startCluster(cmd, nil)
}
