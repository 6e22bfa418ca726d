// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name  string
		addr  string
		valid bool
	}{
		{name: "plain ip", addr: "10.0.0.1:8001", valid: true},
		{name: "hostname", addr: "node-1.example.com:8899", valid: true},
		{name: "zero port", addr: "10.0.0.1:0", valid: false},
		{name: "no port", addr: "10.0.0.1", valid: false},
		{name: "empty", addr: "", valid: false},
		{name: "unspecified host", addr: "0.0.0.0:8001", valid: false},
		{name: "garbage", addr: "not an address", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.valid, ValidAddress(tt.addr))
		})
	}
}

func TestNewContactInfo(t *testing.T) {
	c, err := NewContactInfo("node1", "10.0.0.1:8001", "10.0.0.1:8899", "10.0.0.1:8003")
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.1:8899", c.RPCHostPort())

	_, err = NewContactInfo("node2", "10.0.0.1:0", "10.0.0.1:8899", "")
	require.Error(t, err)

	// gossip address is mandatory
	_, err = NewContactInfo("node3", "", "10.0.0.1:8899", "")
	require.Error(t, err)
}
