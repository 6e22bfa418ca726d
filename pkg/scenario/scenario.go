// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scenario composes discovery, the control plane and
// assertions into isolated, repeatable fault-injection units. A
// scenario is a pure function of its Env: the identical body runs
// against an in-process or a physically deployed cluster.
package scenario

import (
	"context"
	"time"

	"github.com/nimbuschain/cli/pkg/models"
	"github.com/nimbuschain/cli/pkg/ux"
)

// Env is the complete external input of a scenario. Nothing else may
// be consulted, so scenarios stay deployment-agnostic.
type Env struct {
	EntryPoint models.ContactInfo
	Credential models.FundedCredential
	NodeCount  int
}

// Scenario is one self-contained fault-injection unit. Bodies must
// not depend on execution order relative to other scenarios and must
// not require cleanup of shared cluster state afterwards.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, env Env) error
}

// Report is the outcome of one scenario.
type Report struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Runner executes scenarios sequentially against one cluster
// instance. Scenarios mutate shared cluster state (gossip tables,
// active sets), so concurrent execution against the same cluster is
// not permitted; disjoint clusters may run in parallel.
type Runner struct {
	Env Env
}

// Run executes every scenario, reporting each outcome. A failing
// scenario does not abort the rest.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Report {
	reports := make([]Report, 0, len(scenarios))
	for _, s := range scenarios {
		start := time.Now()
		err := s.Run(ctx, r.Env)
		report := Report{Name: s.Name, Err: err, Duration: time.Since(start)}
		if err != nil {
			ux.Logger.RedXToUser("scenario %s failed after %s: %v", s.Name, report.Duration, err)
		} else {
			ux.Logger.GreenCheckmarkToUser("scenario %s passed in %s", s.Name, report.Duration)
		}
		reports = append(reports, report)
	}
	return reports
}

// Failed returns the failed subset of reports.
func Failed(reports []Report) []Report {
	var out []Report
	for _, r := range reports {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
