// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import (
	"time"
)

const (
	DefaultPerms755    = 0o755
	WriteReadReadPerms = 0o644

	BaseDirName = ".nimbus-cluster"
	LogDir      = "logs"
	RunDir      = "runs"
	BundleDir   = "bundles"

	DefaultConfigFileType = "json"
	DefaultConfigFileName = "cluster"

	TopologyFileName = "topology.yaml"

	// Environment variable propagated unchanged to every remote node process.
	LogVerbosityEnvVar = "NIMBUS_LOG"

	RemoteSSHUser     = "nimbus"
	RemoteSSHPort     = 22
	RemoteBaseDir     = "/home/nimbus/.nimbus"
	RemoteBinDir      = "/home/nimbus/.nimbus/bin"
	RemoteLedgerDir   = "/home/nimbus/.nimbus/ledger"
	RemoteLogDir      = "/home/nimbus/.nimbus/logs"
	RemotePgidFile    = "/home/nimbus/.nimbus/fullnode.pgid"
	ReusedStateSuffix = ".previous"

	FullnodeBinName    = "nimbus-fullnode"
	LedgerToolBinName  = "nimbus-ledger-tool"
	BenchClientBinName = "nimbus-bench-client"
	FaucetBinName      = "nimbus-faucet"

	SSHConnectTimeout = 10 * time.Second
	SSHFileOpsTimeout = 10 * time.Second
	SSHScriptTimeout  = 120 * time.Second

	RPCRequestTimeout = 30 * time.Second
	DefaultRPCPort    = 8899
	DefaultGossipPort = 8001
	DefaultFaucetPort = 9900

	// DefaultDiscoveryWindow bounds a single gossip discovery snapshot.
	// Callers needing a different bound pass their own window.
	DefaultDiscoveryWindow = 5 * time.Second

	// DefaultLaunchConcurrency caps in-flight follower launches so artifact
	// fan-in cannot overwhelm the bootstrap leader.
	DefaultLaunchConcurrency = 8
	// After every DefaultStaggerEvery launch slots the orchestrator pauses
	// for DefaultStaggerPause before issuing more.
	DefaultStaggerEvery = 2
	DefaultStaggerPause = 2 * time.Second

	ReleaseURLFmt = "https://release.nimbuschain.io/%s/nimbus-release-%s-%s.tar.gz"

	MaxLogFileSizeMB = 4
	MaxNumOfLogFiles = 5
)
