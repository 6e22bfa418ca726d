// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeRole tells the orchestrator how to launch a node and which
// process set it runs.
type NodeRole string

const (
	RoleBootstrapLeader NodeRole = "bootstrap-leader"
	RoleFullnode        NodeRole = "fullnode"
	RoleBlockstreamer   NodeRole = "blockstreamer"
	RoleClient          NodeRole = "client"
)

// NodeState is the lifecycle state of one deployed node. Transitions
// are forward-only; Stopped and Failed are terminal and idempotent to
// re-enter.
type NodeState string

const (
	StatePending  NodeState = "pending"
	StateStarting NodeState = "starting"
	StateRunning  NodeState = "running"
	StateStopped  NodeState = "stopped"
	StateFailed   NodeState = "failed"
)

var stateRank = map[NodeState]int{
	StatePending:  0,
	StateStarting: 1,
	StateRunning:  2,
	StateStopped:  3,
	StateFailed:   3,
}

// Terminal reports whether s admits no further transitions except
// idempotent re-entry.
func (s NodeState) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// NodeRecord is one member of a deployment topology: where the node
// runs, what role it plays, its current lifecycle state and where its
// log ends up.
type NodeRecord struct {
	// Address is the host the node runs on (ssh-reachable).
	Address string   `yaml:"address"`
	Role    NodeRole `yaml:"role"`
	// LogPath is the run-scoped log file for this node on the
	// controlling host.
	LogPath string `yaml:"-"`
	// Pgid is the remote process group recorded at launch, 0 before
	// the node has been started.
	Pgid int `yaml:"-"`

	state NodeState
}

// State returns the node's current lifecycle state.
func (n *NodeRecord) State() NodeState {
	if n.state == "" {
		return StatePending
	}
	return n.state
}

// Transition moves the node to next. Re-entering a terminal state is a
// no-op; any other backward move is rejected.
func (n *NodeRecord) Transition(next NodeState) error {
	cur := n.State()
	if cur == next {
		return nil
	}
	if cur.Terminal() {
		if next.Terminal() {
			// Stopped and Failed absorb each other; the first terminal
			// state wins.
			return nil
		}
		return fmt.Errorf("node %s: cannot leave terminal state %s for %s", n.Address, cur, next)
	}
	if stateRank[next] < stateRank[cur] {
		return fmt.Errorf("node %s: backward transition %s -> %s", n.Address, cur, next)
	}
	n.state = next
	return nil
}

// ClusterTopology is the ordered set of nodes for one deployment run.
// It is validated before the run starts and never mutated afterwards;
// the orchestrator works on its own copy.
type ClusterTopology struct {
	Name  string        `yaml:"name"`
	Nodes []*NodeRecord `yaml:"nodes"`
}

var ErrNoBootstrapLeader = errors.New("topology has no bootstrap-leader")

// Validate enforces the one-bootstrap-leader invariant.
func (t *ClusterTopology) Validate() error {
	leaders := 0
	for _, n := range t.Nodes {
		if n.Address == "" {
			return fmt.Errorf("topology %q contains a node without an address", t.Name)
		}
		if n.Role == RoleBootstrapLeader {
			leaders++
		}
	}
	if leaders == 0 {
		return ErrNoBootstrapLeader
	}
	if leaders > 1 {
		return fmt.Errorf("topology %q has %d bootstrap-leaders, want exactly 1", t.Name, leaders)
	}
	return nil
}

// Leader returns the topology's single bootstrap leader.
func (t *ClusterTopology) Leader() *NodeRecord {
	for _, n := range t.Nodes {
		if n.Role == RoleBootstrapLeader {
			return n
		}
	}
	return nil
}

// ByRole returns the nodes holding the given role, in topology order.
func (t *ClusterTopology) ByRole(role NodeRole) []*NodeRecord {
	var out []*NodeRecord
	for _, n := range t.Nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Copy returns a deep copy the orchestrator can own for one run.
func (t *ClusterTopology) Copy() *ClusterTopology {
	cp := &ClusterTopology{Name: t.Name}
	for _, n := range t.Nodes {
		dup := *n
		cp.Nodes = append(cp.Nodes, &dup)
	}
	return cp
}

// LoadTopology reads a topology descriptor from a yaml file and
// validates it.
func LoadTopology(path string) (*ClusterTopology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading topology %s: %w", path, err)
	}
	var t ClusterTopology
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed parsing topology %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
