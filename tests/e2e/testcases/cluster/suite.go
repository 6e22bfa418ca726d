// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cluster

import (
	"context"
	"io"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/nimbuschain/cli/pkg/gossip"
	"github.com/nimbuschain/cli/pkg/rpcclient"
	"github.com/nimbuschain/cli/pkg/scenario"
	"github.com/nimbuschain/cli/pkg/ux"
	"github.com/nimbuschain/cli/tests/e2e/utils"
)

var env scenario.Env

var _ = ginkgo.Describe("[Cluster]", ginkgo.Ordered, func() {
	ginkgo.BeforeAll(func() {
		ux.NewUserLog(zap.NewNop().Sugar(), io.Discard)
		e, ok, err := utils.ClusterEnv()
		gomega.Expect(err).Should(gomega.BeNil())
		if !ok {
			ginkgo.Skip("no live cluster configured; set " + utils.EntryPointEnvVar)
		}
		env = e

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		gomega.Expect(utils.EnsureFunded(ctx, env)).Should(gomega.BeNil())
	})

	ginkgo.It("answers a health probe at the entry point", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client := rpcclient.New(env.EntryPoint)
		gomega.Expect(client.Health(ctx)).Should(gomega.BeNil())
	})

	ginkgo.It("advances its transaction count", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		client := rpcclient.New(env.EntryPoint)
		before, err := client.TransactionCount(ctx)
		gomega.Expect(err).Should(gomega.BeNil())
		gomega.Eventually(func() uint64 {
			count, _ := client.TransactionCount(ctx)
			return count
		}, 30*time.Second, time.Second).Should(gomega.BeNumerically(">", before))
	})

	ginkgo.It("discovers at most the expected member count", func() {
		d := &gossip.Discoverer{Window: 10 * time.Second}
		set := d.Discover(env.EntryPoint, env.NodeCount)
		gomega.Expect(len(set)).Should(gomega.BeNumerically("<=", env.NodeCount))
	})

	ginkgo.It("survives a gossip flood without losing liveness", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		tk := &scenario.Toolkit{}
		runner := &scenario.Runner{Env: env}
		reports := runner.Run(ctx, []scenario.Scenario{
			tk.DiscoveryBound(),
			tk.GossipFlood(),
		})
		failed := scenario.Failed(reports)
		gomega.Expect(failed).Should(gomega.BeEmpty())
	})
})
