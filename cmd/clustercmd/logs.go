// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Fetch every node's log into a run directory",
		Long: `The cluster logs command downloads every topology node's log file into
a fresh run-scoped directory. Each log is named by role and address;
nodes with a recorded process group additionally get a pgid-keyed
alias, so a log can be found from either handle.`,
		Args: cobra.NoArgs,
		RunE: fetchLogs,
	}
}

func fetchLogs(cmd *cobra.Command, _ []string) error {
	topo, err := loadTopology()
	if err != nil {
		return err
	}
	destDir, err := app.GetRunLogDir(runID())
	if err != nil {
		return err
	}
	ctl := controller()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Node", "Role", "Log")
	for _, node := range topo.Nodes {
		path, err := ctl.FetchLog(node, destDir)
		if err != nil {
			ux.Logger.RedXToUser("no log from %s: %s", node.Address, err)
			continue
		}
		_ = table.Append([]string{node.Address, string(node.Role), path})
	}
	_ = table.Render()
	ux.Logger.PrintToUser("Logs collected under %s", destDir)
	return nil
}

// printTopology renders the deployed topology as a table.
func printTopology(topo *models.ClusterTopology) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Node", "Role", "State", "PGID")
	for _, node := range topo.Nodes {
		pgid := ""
		if node.Pgid != 0 {
			pgid = strconv.Itoa(node.Pgid)
		}
		_ = table.Append([]string{node.Address, string(node.Role), string(node.State()), pgid})
	}
	_ = table.Render()
}
