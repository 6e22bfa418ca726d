// Copyright (C) 2024-2026, Nimbus Systems Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

// FundedCredential is key material with a known funded balance. It is
// owned by whoever drives a scenario; the harness only reads it.
type FundedCredential struct {
	// Pubkey is the credential's public identity.
	Pubkey string
	// KeypairPath points at the serialized keypair on the controlling
	// host.
	KeypairPath string
	// Balance is the balance the credential is known to hold, in base
	// units.
	Balance uint64
}
