// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/nimbuschain/cli/cmd"
)

func main() {
	cmd.Execute()
}
