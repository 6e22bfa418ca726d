// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package artifact

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/ux"
)

// Bundle is a resolved, locally staged set of deployable binaries.
type Bundle struct {
	// Dir holds the staged binaries on the controlling host.
	Dir string
	// Version identifies the build or release the bundle came from.
	Version string
	// ProgramDir optionally holds custom programs shipped with the
	// binaries.
	ProgramDir string
}

// Binaries lists the files a node launch needs pushed to its host.
func (b *Bundle) Binaries() []string {
	return []string{
		constants.FullnodeBinName,
		constants.LedgerToolBinName,
		constants.BenchClientBinName,
		constants.FaucetBinName,
	}
}

// Resolver stages deployable binaries under StageDir according to a
// Source descriptor.
type Resolver struct {
	Source   Source
	StageDir string
	// BuildCommand overrides the default build invocation, for tests.
	BuildCommand []string
}

// Resolve stages the binaries. Every failure is an *Error and is
// fatal: the orchestrator starts nothing when resolution fails.
func (r *Resolver) Resolve(ctx context.Context) (*Bundle, error) {
	if err := r.Source.check(); err != nil {
		return nil, &Error{Op: "select", Err: err}
	}
	if err := os.MkdirAll(r.StageDir, constants.DefaultPerms755); err != nil {
		return nil, &Error{Op: "stage", Err: err}
	}
	switch {
	case r.Source.Build != nil:
		return r.resolveBuild(ctx, r.Source.Build)
	case r.Source.Tarball != nil:
		return r.resolveTarball(r.Source.Tarball)
	default:
		return r.resolveChannel(ctx, r.Source.Channel)
	}
}

func (r *Resolver) resolveBuild(ctx context.Context, src *BuildSource) (*Bundle, error) {
	args := r.BuildCommand
	if len(args) == 0 {
		args = []string{"make", "release-bins", "DEST=" + r.StageDir}
		if len(src.Features) > 0 {
			args = append(args, "FEATURES="+strings.Join(src.Features, ","))
		}
	}
	ux.Logger.PrintToUser("Building node binaries in %s", src.Dir)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = src.Dir
	waiting := make(chan struct{})
	go ux.PrintWait(waiting)
	out, err := cmd.CombinedOutput()
	close(waiting)
	if err != nil {
		return nil, &Error{Op: "build", Err: fmt.Errorf("%w: %s", err, string(out))}
	}
	b := &Bundle{Dir: r.StageDir, Version: "local-build", ProgramDir: src.ProgramDir}
	return b, r.checkBundle(b)
}

func (r *Resolver) resolveTarball(src *TarballSource) (*Bundle, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, &Error{Op: "tarball", Err: err}
	}
	defer f.Close()
	if err := extractTarGz(f, r.StageDir); err != nil {
		return nil, &Error{Op: "tarball", Err: err}
	}
	b := &Bundle{Dir: r.StageDir, Version: filepath.Base(src.Path)}
	return b, r.checkBundle(b)
}

func (r *Resolver) resolveChannel(ctx context.Context, src *ChannelSource) (*Bundle, error) {
	url := fmt.Sprintf(constants.ReleaseURLFmt, src.Channel, runtime.GOOS, runtime.GOARCH)
	path := filepath.Join(r.StageDir, "release.tar.gz")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := download(ctx, url, path); err != nil {
		return nil, &Error{Op: "download", Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "download", Err: err}
	}
	defer f.Close()
	if err := extractTarGz(f, r.StageDir); err != nil {
		return nil, &Error{Op: "download", Err: err}
	}
	b := &Bundle{Dir: r.StageDir, Version: src.Channel}
	return b, r.checkBundle(b)
}

// checkBundle verifies every expected binary is present and readable.
func (r *Resolver) checkBundle(b *Bundle) error {
	for _, bin := range b.Binaries() {
		info, err := os.Stat(filepath.Join(b.Dir, bin))
		if err != nil {
			return &Error{Op: "verify", Err: fmt.Errorf("bundle is missing %s: %w", bin, err)}
		}
		if info.Mode()&0o111 == 0 {
			return &Error{Op: "verify", Err: fmt.Errorf("%s is not executable", bin)}
		}
	}
	return nil
}

// Target is the slice of a remote host Push needs.
type Target interface {
	MkdirAll(dir string, timeout time.Duration) error
	Upload(localPath, remotePath string, timeout time.Duration) error
}

// Push uploads the bundle's binaries to the host's bin directory.
func Push(b *Bundle, host Target) error {
	if err := host.MkdirAll(constants.RemoteBinDir, constants.SSHFileOpsTimeout); err != nil {
		return err
	}
	for _, bin := range b.Binaries() {
		local := filepath.Join(b.Dir, bin)
		remote := filepath.Join(constants.RemoteBinDir, bin)
		if err := host.Upload(local, remote, constants.SSHFileOpsTimeout); err != nil {
			return err
		}
	}
	if b.ProgramDir == "" {
		return nil
	}
	entries, err := os.ReadDir(b.ProgramDir)
	if err != nil {
		return &Error{Op: "programs", Err: err}
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		local := filepath.Join(b.ProgramDir, e.Name())
		remote := filepath.Join(constants.RemoteBinDir, e.Name())
		if err := host.Upload(local, remote, constants.SSHFileOpsTimeout); err != nil {
			return err
		}
	}
	return nil
}
