// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package lifecycle

import (
	"os"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/process"
)

// killLocalByName terminates local processes matching the given names,
// used when a node runs on the controlling host itself (in-process
// clusters). The whole process group of each match is signalled, not
// just the leaf pid. Failures are ignored: the process may already be
// gone.
func killLocalByName(names ...string) {
	procs, err := process.Processes()
	if err != nil {
		return
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		for _, want := range names {
			if !strings.Contains(name, want) {
				continue
			}
			if pgid, err := syscall.Getpgid(int(p.Pid)); err == nil && pgid != syscall.Getpgrp() {
				_ = syscall.Kill(-pgid, syscall.SIGTERM)
			} else {
				_ = p.Terminate()
			}
			break
		}
	}
}

// linkAlias creates a pgid-keyed alias for a fetched log file.
func linkAlias(target, alias string) error {
	_ = os.Remove(alias)
	return os.Symlink(target, alias)
}
