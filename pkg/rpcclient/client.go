// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpcclient is a synchronous, single-target JSON-RPC wrapper
// for one node's client-facing control plane. Calls never retry
// internally; retry policy belongs to the caller.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nimbuschain/cli/pkg/constants"
	"github.com/nimbuschain/cli/pkg/models"
)

// Kind classifies a control-plane call failure.
type Kind string

const (
	KindTimeout Kind = "timeout"
	KindRefused Kind = "refused"
	KindDecode  Kind = "decode"
	KindNode    Kind = "node"
)

// Error is a single-call control plane failure, surfaced to the
// caller unretried.
type Error struct {
	Kind   Kind
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc %s (%s): %v", e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client talks to exactly one node's client-facing endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a client for the node behind the given contact.
func New(contact models.ContactInfo) *Client {
	return NewForEndpoint(contact.RPCHostPort())
}

// NewForEndpoint builds a client for an explicit http endpoint.
func NewForEndpoint(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: constants.RPCRequestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return &Error{Kind: KindDecode, Method: method, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindRefused, Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		kind := KindRefused
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() || errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return &Error{Kind: kind, Method: method, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindRefused, Method: method, Err: fmt.Errorf("http status %s", resp.Status)}
	}
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &Error{Kind: KindDecode, Method: method, Err: err}
	}
	if rpcResp.Error != nil {
		return &Error{Kind: KindNode, Method: method, Err: fmt.Errorf("%s (code %d)", rpcResp.Error.Message, rpcResp.Error.Code)}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return &Error{Kind: KindDecode, Method: method, Err: err}
	}
	return nil
}

// PushGossipEntry injects an arbitrary, possibly invalid, contact
// record into the target node's gossip table. The node must have been
// booted with rpc-gossip-push-enabled.
func (c *Client) PushGossipEntry(ctx context.Context, contact models.ContactInfo) error {
	return c.call(ctx, "pushGossipEntry", []interface{}{contact}, nil)
}

// RefreshActiveSet forces the node to re-select its active gossip
// peers immediately instead of waiting for its normal interval. The
// node must have been booted with rpc-gossip-refresh-active-set-enabled.
func (c *Client) RefreshActiveSet(ctx context.Context) error {
	return c.call(ctx, "refreshActiveSet", nil, nil)
}

// Health queries basic node health.
func (c *Client) Health(ctx context.Context) error {
	var status string
	if err := c.call(ctx, "getHealth", nil, &status); err != nil {
		return err
	}
	if status != "ok" {
		return &Error{Kind: KindNode, Method: "getHealth", Err: fmt.Errorf("node reports %q", status)}
	}
	return nil
}

// Balance returns the funded balance of a public key.
func (c *Client) Balance(ctx context.Context, pubkey string) (uint64, error) {
	var balance uint64
	if err := c.call(ctx, "getBalance", []interface{}{pubkey}, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// TransactionCount returns the node's confirmed transaction count.
func (c *Client) TransactionCount(ctx context.Context) (uint64, error) {
	var count uint64
	if err := c.call(ctx, "getTransactionCount", nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ClusterNodes returns the contacts the node currently advertises for
// the cluster, as raw records; discovery filters them.
func (c *Client) ClusterNodes(ctx context.Context) ([]models.ContactInfo, error) {
	var nodes []models.ContactInfo
	if err := c.call(ctx, "getClusterNodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// RequestTransfer asks the node to move amount base units from the
// funded credential to dest, returning the transaction signature.
func (c *Client) RequestTransfer(ctx context.Context, cred models.FundedCredential, dest string, amount uint64) (string, error) {
	var signature string
	params := map[string]interface{}{
		"from":   cred.Pubkey,
		"to":     dest,
		"amount": amount,
	}
	if err := c.call(ctx, "requestTransfer", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// ConfirmTransaction reports whether the given signature has
// confirmed on the target node.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) (bool, error) {
	var confirmed bool
	if err := c.call(ctx, "confirmTransaction", []interface{}{signature}, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}

// RequestAirdrop asks the cluster faucet to fund pubkey with amount
// base units and returns the transfer signature.
func (c *Client) RequestAirdrop(ctx context.Context, pubkey string, amount uint64) (string, error) {
	var signature string
	if err := c.call(ctx, "requestAirdrop", []interface{}{pubkey, amount}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// WaitForConfirmation polls ConfirmTransaction until the signature
// confirms or the deadline passes. This is caller-side polling of a
// query, not an internal retry of a failed call.
func (c *Client) WaitForConfirmation(ctx context.Context, signature string, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		confirmed, err := c.ConfirmTransaction(ctx, signature)
		if err == nil && confirmed {
			return nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return err
			}
			return &Error{Kind: KindTimeout, Method: "confirmTransaction", Err: fmt.Errorf("signature %s unconfirmed after %s", signature, deadline)}
		case <-ticker.C:
		}
	}
}
