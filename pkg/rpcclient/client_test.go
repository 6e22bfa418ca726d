// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nimbuschain/cli/pkg/models"
)

// fakeNode serves a JSON-RPC control plane for tests.
type fakeNode struct {
	t       *testing.T
	methods map[string]interface{}
	calls   []string
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.calls = append(f.calls, req.Method)

	result, ok := f.methods[req.Method]
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": -32601, "message": "method not found"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0", "id": req.ID, "result": result,
	})
}

func newFakeNode(t *testing.T, methods map[string]interface{}) (*fakeNode, *Client) {
	f := &fakeNode{t: t, methods: methods}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, NewForEndpoint(srv.URL)
}

func TestPushGossipEntryAndRefresh(t *testing.T) {
	f, client := newFakeNode(t, map[string]interface{}{
		"pushGossipEntry":  "ok",
		"refreshActiveSet": "ok",
	})
	ctx := context.Background()

	contact := models.ContactInfo{ID: "bogus", Gossip: "0.0.0.0:0"}
	require.NoError(t, client.PushGossipEntry(ctx, contact))
	require.NoError(t, client.RefreshActiveSet(ctx))
	require.Equal(t, []string{"pushGossipEntry", "refreshActiveSet"}, f.calls)
}

func TestHealthAndBalance(t *testing.T) {
	_, client := newFakeNode(t, map[string]interface{}{
		"getHealth":  "ok",
		"getBalance": 12345,
	})
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))
	balance, err := client.Balance(ctx, "somekey")
	require.NoError(t, err)
	require.Equal(t, uint64(12345), balance)
}

func TestNodeErrorSurfacesWithoutRetry(t *testing.T) {
	f, client := newFakeNode(t, map[string]interface{}{})

	err := client.RefreshActiveSet(context.Background())
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindNode, rerr.Kind)
	// exactly one call: no internal retry
	require.Len(t, f.calls, 1)
}

func TestRefusedConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewForEndpoint(url)
	err := client.Health(context.Background())
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindRefused, rerr.Kind)
}

func TestDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	client := NewForEndpoint(srv.URL)
	err := client.Health(context.Background())
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, KindDecode, rerr.Kind)
}

func TestTransferAndConfirm(t *testing.T) {
	_, client := newFakeNode(t, map[string]interface{}{
		"requestTransfer":    "sig123",
		"confirmTransaction": true,
	})
	ctx := context.Background()

	cred := models.FundedCredential{Pubkey: "funder", Balance: 1000}
	sig, err := client.RequestTransfer(ctx, cred, "dest", 1)
	require.NoError(t, err)
	require.Equal(t, "sig123", sig)

	confirmed, err := client.ConfirmTransaction(ctx, sig)
	require.NoError(t, err)
	require.True(t, confirmed)
}

func TestAirdropAndTransactionCount(t *testing.T) {
	f, client := newFakeNode(t, map[string]interface{}{
		"requestAirdrop":      "airdrop-sig",
		"getTransactionCount": 42,
	})
	ctx := context.Background()

	sig, err := client.RequestAirdrop(ctx, "somekey", 1_000_000)
	require.NoError(t, err)
	require.Equal(t, "airdrop-sig", sig)

	count, err := client.TransactionCount(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), count)
	require.Equal(t, []string{"requestAirdrop", "getTransactionCount"}, f.calls)
}
