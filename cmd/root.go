// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/nimbuschain/cli/cmd/clustercmd"
	"github.com/nimbuschain/cli/pkg/application"
	"github.com/nimbuschain/cli/pkg/config"
	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/ux"
)

var (
	app *application.App

	Version  = "0.3.0"
	cfgFile  string
	logLevel string
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "nimbus-cluster",
		Long: `nimbus-cluster deploys and exercises fault-tolerant node clusters.

It boots a multi-node cluster from cold start (bootstrap leader first,
followers staggered behind it), gates client startup on a sanity
battery, and drives a running cluster through gossip discovery and the
per-node control plane to inject faults and verify invariants.

COMMAND OVERVIEW:

  cluster start    Deploy a cluster from a topology file
  cluster stop     Stop every node of a deployed cluster
  cluster restart  Stop, then redeploy
  cluster sanity   Run the post-deployment health battery
  cluster update   Replace cluster software in place (rolling)
  cluster logs     Pull per-node logs to the controlling host`,
		PersistentPreRunE: createApp,
		Version:           Version,
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nimbus-cluster/cluster.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for the application")

	rootCmd.AddCommand(clustercmd.NewCmd(app))

	return rootCmd
}

func createApp(_ *cobra.Command, _ []string) error {
	baseDir, err := setupEnv()
	if err != nil {
		return err
	}
	log, err := setupLogging(baseDir)
	if err != nil {
		return err
	}
	app.Setup(baseDir, log, config.New())
	initConfig()
	return nil
}

func setupEnv() (string, error) {
	usr, err := user.Current()
	if err != nil {
		// no logger here yet
		fmt.Printf("unable to get system user %s\n", err)
		return "", err
	}
	baseDir := filepath.Join(usr.HomeDir, constants.BaseDirName)

	for _, dir := range []string{
		baseDir,
		filepath.Join(baseDir, constants.LogDir),
		filepath.Join(baseDir, constants.RunDir),
		filepath.Join(baseDir, constants.BundleDir),
	} {
		if err := os.MkdirAll(dir, constants.DefaultPerms755); err != nil {
			fmt.Printf("failed creating %s: %s\n", dir, err)
			return "", err
		}
	}
	return baseDir, nil
}

func setupLogging(baseDir string) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.WarnLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(baseDir, constants.LogDir, "cluster.log"),
		MaxSize:    constants.MaxLogFileSizeMB,
		MaxBackups: constants.MaxNumOfLogFiles,
	})
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), rotating, level)
	log := zap.New(core).Sugar()
	// user output goes to stdout, logs go to the rotating log file
	ux.NewUserLog(log, os.Stdout)
	return log, nil
}

// initConfig reads in config file and ENV variables if set.
// Priority: flags > env vars > config file > defaults.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(filepath.Join(home, constants.BaseDirName))
		viper.SetConfigType(constants.DefaultConfigFileType)
		viper.SetConfigName(constants.DefaultConfigFileName)
	}

	// log verbosity passes through unchanged to every remote node
	_ = viper.BindEnv("node-log-verbosity", constants.LogVerbosityEnvVar)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		app.Log.Debugf("using config file %s", viper.ConfigFileUsed())
	}
	// no config file is normal; silently continue
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	app = application.New()
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err)
		os.Exit(1)
	}
}
