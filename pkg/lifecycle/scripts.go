// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package lifecycle

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed shell/*.sh
var scripts embed.FS

type scriptInputs struct {
	BaseDir      string
	BinDir       string
	LedgerDir    string
	LogDir       string
	PgidFile     string
	Binary       string
	Args         string
	LogName      string
	LogEnvVar    string
	LogVerbosity string
	Reuse        bool
	ReuseSuffix  string
	ProcessNames []string
}

// renderScript renders one of the embedded shell templates with the
// given inputs.
func renderScript(path string, in scriptInputs) (string, error) {
	raw, err := scripts.ReadFile(path)
	if err != nil {
		return "", err
	}
	t, err := template.New(path).Parse(string(raw))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
