// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package artifact resolves the deployable node binaries for a cluster
// run - from a local build, a prebuilt tarball or a release channel
// download - and pushes them to remote hosts.
package artifact

import (
	"errors"
	"fmt"
)

// Error is a fatal artifact resolution failure. Nothing is started
// when artifact resolution fails.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BuildSource builds the node binaries from a local working tree.
type BuildSource struct {
	// Dir is the source tree to build in.
	Dir string
	// Features is an optional build-feature list forwarded to the
	// build.
	Features []string
	// ProgramDir optionally points at custom on-chain programs to
	// bundle alongside the binaries.
	ProgramDir string
}

// TarballSource uses a prebuilt release tarball supplied by the
// caller.
type TarballSource struct {
	Path string
}

// ChannelSource downloads a release by channel name or version tag.
type ChannelSource struct {
	// Channel is a release channel such as "edge" or "stable", or an
	// explicit version tag such as "v0.16.1".
	Channel string
}

// Source describes where deployable binaries come from. Exactly one
// field must be set.
type Source struct {
	Build   *BuildSource
	Tarball *TarballSource
	Channel *ChannelSource
}

var errAmbiguousSource = errors.New("exactly one artifact source must be set")

func (s Source) check() error {
	n := 0
	if s.Build != nil {
		n++
	}
	if s.Tarball != nil {
		n++
	}
	if s.Channel != nil {
		n++
	}
	if n != 1 {
		return errAmbiguousSource
	}
	return nil
}
