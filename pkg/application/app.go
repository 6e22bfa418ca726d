// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nimbuschain/cli/pkg/config"
	"github.com/nimbuschain/cli/pkg/constants"
)

type App struct {
	Log     *zap.SugaredLogger
	Conf    *config.Config
	baseDir string
}

func New() *App {
	return &App{}
}

func (app *App) Setup(baseDir string, log *zap.SugaredLogger, conf *config.Config) {
	app.baseDir = baseDir
	app.Log = log
	app.Conf = conf
}

func (app *App) GetBaseDir() string {
	return app.baseDir
}

func (app *App) GetRunDir() string {
	return filepath.Join(app.baseDir, constants.RunDir)
}

func (app *App) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDir)
}

func (app *App) GetBundleDir() string {
	return filepath.Join(app.baseDir, constants.BundleDir)
}

// GetRunLogDir returns the run-scoped directory holding one log file
// per node, creating it if needed.
func (app *App) GetRunLogDir(runID string) (string, error) {
	dir := filepath.Join(app.GetRunDir(), runID, constants.LogDir)
	if err := os.MkdirAll(dir, constants.DefaultPerms755); err != nil {
		return "", err
	}
	return dir, nil
}
