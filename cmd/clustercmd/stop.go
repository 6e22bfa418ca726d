// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop every node of a cluster",
		Long: `The cluster stop command terminates the supervised process group of
every node named by the topology, falling back to pattern-based
termination where no group is recorded. Stopping an already-stopped
cluster is a no-op and always succeeds.`,
		Args: cobra.NoArgs,
		RunE: stopCluster,
	}
}

func stopCluster(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	ctl := controller()

	// stops on distinct nodes share no state; run them all at once
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

	stopped := 0
	for _, node := range topo.Nodes {
		if node.State() == models.StateStopped {
			stopped++
		}
	}
	ux.Logger.GreenCheckmarkToUser("Cluster %s stopped (%d node(s))", topo.Name, stopped)
	return nil
}
