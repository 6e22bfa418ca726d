// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package clustercmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nimbuschain/cli/pkg/application"
	"github.com/nimbuschain/cli/pkg/artifact"
	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/deploy"
	"github.com/nimbuschain/cli/pkg/gossip"
	"github.com/nimbuschain/cli/pkg/lifecycle"
	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/sanity"
)

var app *application.App

// deployment flags shared by start/restart/update
var (
	topologyPath string
	sshKeyPath   string

	tarballPath    string
	releaseChannel string
	releaseTag     string
	buildFeatures  []string
	programDir     string
	srcDir         string

	reuseConfig bool

	// sanity skip flags; each is independent of the others
	skipLedgerVerify   bool
	skipFullnodeSanity bool
	rejectExtraNodes   bool
)

// NewCmd returns a new cobra.Command for cluster operations
func NewCmd(injectedApp *application.App) *cobra.Command {
	app = injectedApp
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Deploy and exercise node clusters",
		Long: `The cluster command suite boots, updates and tears down multi-node
clusters described by a topology file, and runs the post-deployment
sanity battery against them.

Examples:
  # Deploy a cluster from a prebuilt release tarball
  nimbus-cluster cluster start --topology testnet.yaml --tarball release.tar.gz

  # Deploy the edge channel build
  nimbus-cluster cluster start --topology testnet.yaml --channel edge

  # Roll new software through a running cluster
  nimbus-cluster cluster update --topology testnet.yaml --tag v0.16.2

  # Pull every node's log
  nimbus-cluster cluster logs --topology testnet.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&topologyPath, "topology", constants.TopologyFileName, "cluster topology file")
	cmd.PersistentFlags().StringVar(&sshKeyPath, "ssh-key", "", "ssh private key for cluster hosts")

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newRestartCmd())
	cmd.AddCommand(newSanityCmd())
	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newLogsCmd())

	return cmd
}

func addArtifactFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tarballPath, "tarball", "", "deploy a prebuilt release tarball")
	cmd.Flags().StringVar(&releaseChannel, "channel", "", "deploy the latest build of a release channel (edge, beta, stable)")
	cmd.Flags().StringVar(&releaseTag, "tag", "", "deploy an exact release version tag")
	cmd.Flags().StringSliceVar(&buildFeatures, "build-features", nil, "extra build features for local builds")
	cmd.Flags().StringVar(&programDir, "program-dir", "", "directory of custom programs to bundle")
	cmd.Flags().StringVar(&srcDir, "src-dir", ".", "source tree for local builds")
	cmd.Flags().BoolVar(&reuseConfig, "reuse-config", false, "relocate prior node state aside instead of deleting it")
}

func addSanityFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&skipLedgerVerify, "skip-ledger-verify", false, "skip ledger consistency verification")
	cmd.Flags().BoolVar(&skipFullnodeSanity, "skip-validator-sanity", false, "skip the fullnode liveness probe")
	cmd.Flags().BoolVar(&rejectExtraNodes, "reject-extra-nodes", false, "fail when more nodes than expected are discovered")
}

// artifactSource maps the artifact flags to a source descriptor.
// Exactly one of tarball/channel/tag/local-build applies; a local
// build is the default.
func artifactSource() (artifact.Source, error) {
	set := 0
	for _, v := range []string{tarballPath, releaseChannel, releaseTag} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return artifact.Source{}, errors.New("--tarball, --channel and --tag are mutually exclusive")
	}
	switch {
	case tarballPath != "":
		return artifact.Source{Tarball: &artifact.TarballSource{Path: tarballPath}}, nil
	case releaseChannel != "":
		return artifact.Source{Channel: &artifact.ChannelSource{Channel: releaseChannel}}, nil
	case releaseTag != "":
		return artifact.Source{Channel: &artifact.ChannelSource{Channel: releaseTag}}, nil
	default:
		return artifact.Source{Build: &artifact.BuildSource{
			Dir:        srcDir,
			Features:   buildFeatures,
			ProgramDir: programDir,
		}}, nil
	}
}

func loadTopology() (*models.ClusterTopology, error) {
	return models.LoadTopology(topologyPath)
}

func controller() *lifecycle.Controller {
	return &lifecycle.Controller{
		Hosts:        lifecycle.SSHHosts(sshKeyPath),
		ReuseState:   reuseConfig,
		LogVerbosity: viper.GetString("node-log-verbosity"),
	}
}

func checker() *sanity.Checker {
	return &sanity.Checker{
		SkipLedgerVerify:    skipLedgerVerify,
		SkipValidatorSanity: skipFullnodeSanity,
		RejectExtraNodes:    rejectExtraNodes,
		Hosts:               lifecycle.SSHHosts(sshKeyPath),
		Discoverer:          &gossip.Discoverer{},
	}
}

// orchestrator assembles the deployment pipeline for one run.
func orchestrator(runID string) (*deploy.Orchestrator, error) {
	source, err := artifactSource()
	if err != nil {
		return nil, err
	}
	logDir, err := app.GetRunLogDir(runID)
	if err != nil {
		return nil, err
	}
	return &deploy.Orchestrator{
		Artifacts: &artifact.Resolver{
			Source:   source,
			StageDir: filepath.Join(app.GetBundleDir(), runID),
		},
		Nodes:        controller(),
		Sanity:       checker(),
		StaggerEvery: constants.DefaultStaggerEvery,
		StaggerPause: constants.DefaultStaggerPause,
		LogDir:       logDir,
	}, nil
}

func runID() string {
	return fmt.Sprintf("run-%s", time.Now().Format("20060102-150405"))
}
