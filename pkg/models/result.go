// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"errors"
	"fmt"
	"sync"
)

// NodeResult contains the result of an operation on a single node.
type NodeResult struct {
	Address string
	Value   interface{}
	Err     error
}

// NodeResults collects results from concurrent operations across the
// nodes of one deployment. Failures are aggregated, not swallowed: the
// orchestrator reports every launch that went wrong, not just the
// first.
type NodeResults struct {
	results []NodeResult
	lock    sync.Mutex
}

// AddResult adds a result for a node to the collection.
func (nr *NodeResults) AddResult(address string, value interface{}, err error) {
	nr.lock.Lock()
	defer nr.lock.Unlock()
	nr.results = append(nr.results, NodeResult{
		Address: address,
		Value:   value,
		Err:     err,
	})
}

// Len returns the number of results.
func (nr *NodeResults) Len() int {
	nr.lock.Lock()
	defer nr.lock.Unlock()
	return len(nr.results)
}

// ErrorMap returns a map from node address to error for failed nodes.
func (nr *NodeResults) ErrorMap() map[string]error {
	nr.lock.Lock()
	defer nr.lock.Unlock()
	failed := make(map[string]error)
	for _, r := range nr.results {
		if r.Err != nil {
			failed[r.Address] = r.Err
		}
	}
	return failed
}

// HasErrors returns true if any node failed.
func (nr *NodeResults) HasErrors() bool {
	return len(nr.ErrorMap()) > 0
}

// Join returns every failure as a single joined error, nil if all
// nodes succeeded.
func (nr *NodeResults) Join() error {
	nr.lock.Lock()
	defer nr.lock.Unlock()
	var errs []error
	for _, r := range nr.results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Address, r.Err))
		}
	}
	return errors.Join(errs...)
}
