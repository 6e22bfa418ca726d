// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

func newSanityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanity",
		Short: "Run the sanity battery against a running cluster",
		Long: `The cluster sanity command runs the post-deployment health battery
against an already-running cluster: ledger verification on a fullnode
host, a liveness probe against its control plane, and a gossip
node-count check. Each check has its own skip flag, independent of the
others.`,
		Args: cobra.NoArgs,
		RunE: checkCluster,
	}
	addSanityFlags(cmd)
	return cmd
}

func checkCluster(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}

	target := topo.Leader()
	if fullnodes := topo.ByRole(models.RoleFullnode); len(fullnodes) > 0 {
		target = fullnodes[0]
	}
	contact := models.ContactInfo{
		ID:     string(target.Role) + "-" + target.Address,
		Gossip: target.Address + ":" + strconv.Itoa(constants.DefaultGossipPort),
		RPC:    target.Address + ":" + strconv.Itoa(constants.DefaultRPCPort),
	}
	expected := len(topo.Nodes) - len(topo.ByRole(models.RoleClient))

	if err := checker().Check(cmd.Context(), target, contact, expected); err != nil {
		ux.Logger.RedXToUser("Sanity battery failed: %s", err)
		return err
	}
	ux.Logger.GreenCheckmarkToUser("Cluster %s is sane", topo.Name)
	return nil
}
