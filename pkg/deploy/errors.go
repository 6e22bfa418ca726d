// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package deploy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrLeaderRotationDisabled fails an update-in-place run before any
// node is touched.
var ErrLeaderRotationDisabled = errors.New("update requires leader-rotation enabled in the fullnode config")

// Error is a node launch failure. A bootstrap-leader failure aborts
// immediately; follower failures are aggregated across every attempted
// launch before aborting, to maximize diagnostic value.
type Error struct {
	Stage string
	// Failures maps node address to its launch failure.
	Failures map[string]error
	// Logs maps node address to the fetched remote log path, when one
	// could be collected.
	Logs map[string]string
}

// Addresses lists the failed node addresses in stable order.
func (e *Error) Addresses() []string {
	addrs := make([]string, 0, len(e.Failures))
	for addr := range e.Failures {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

func (e *Error) Error() string {
	addrs := e.Addresses()
	var b strings.Builder
	fmt.Fprintf(&b, "deployment failed at %s: %d node(s) failed", e.Stage, len(addrs))
	for _, addr := range addrs {
		fmt.Fprintf(&b, "\n  %s: %v", addr, e.Failures[addr])
		if log, ok := e.Logs[addr]; ok {
			fmt.Fprintf(&b, " (log: %s)", log)
		}
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		errs = append(errs, err)
	}
	return errs
}
