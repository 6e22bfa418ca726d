// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/ux"
)

func TestMain(m *testing.M) {
	ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
	os.Exit(m.Run())
}

func TestSourceCheck(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr bool
	}{
		{name: "none set", source: Source{}, wantErr: true},
		{name: "tarball only", source: Source{Tarball: &TarballSource{Path: "x"}}, wantErr: false},
		{name: "channel only", source: Source{Channel: &ChannelSource{Channel: "edge"}}, wantErr: false},
		{
			name:    "tarball and channel",
			source:  Source{Tarball: &TarballSource{Path: "x"}, Channel: &ChannelSource{Channel: "edge"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.check()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestResolveUnreadableTarballIsFatal(t *testing.T) {
	r := &Resolver{
		Source:   Source{Tarball: &TarballSource{Path: filepath.Join(t.TempDir(), "nope.tar.gz")}},
		StageDir: t.TempDir(),
	}
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, "tarball", aerr.Op)
}

func releaseTarball(t *testing.T, bins []string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, bin := range bins {
		content := []byte("#!/bin/sh\n")
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: "nimbus-release/" + bin,
			Mode: 0o755,
			Size: int64(len(content)),
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "release.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestResolveTarball(t *testing.T) {
	bins := []string{
		constants.FullnodeBinName,
		constants.LedgerToolBinName,
		constants.BenchClientBinName,
		constants.FaucetBinName,
	}
	r := &Resolver{
		Source:   Source{Tarball: &TarballSource{Path: releaseTarball(t, bins)}},
		StageDir: t.TempDir(),
	}
	b, err := r.Resolve(context.Background())
	require.NoError(t, err)
	for _, bin := range b.Binaries() {
		_, err := os.Stat(filepath.Join(b.Dir, bin))
		require.NoError(t, err)
	}
}

func TestResolveTarballMissingBinary(t *testing.T) {
	r := &Resolver{
		Source:   Source{Tarball: &TarballSource{Path: releaseTarball(t, []string{constants.FullnodeBinName})}},
		StageDir: t.TempDir(),
	}
	_, err := r.Resolve(context.Background())
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, "verify", aerr.Op)
}

func TestResolveBuildFailureIsFatal(t *testing.T) {
	r := &Resolver{
		Source:       Source{Build: &BuildSource{Dir: t.TempDir()}},
		StageDir:     t.TempDir(),
		BuildCommand: []string{"false"},
	}
	_, err := r.Resolve(context.Background())
	var aerr *Error
	require.ErrorAs(t, err, &aerr)
	require.Equal(t, "build", aerr.Op)
}
