// Copyright 2025 Edu Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package educhain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/edulabs-io/educhain/multisig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSignerA  = "0x742d35Cc6634C0532925a3b844Bc9e7595f6E123"
	testSignerB  = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	testSignerC  = "0x2546BcD3c84621e976D8185a91A922aE77ECEc30"
	testVerifier = "0xbDA5747bFD65F08deb54cb465eB87D40e51B197E"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	n, err := New(NewConfig(
		WithDatabasePath(t.TempDir()),
		WithSigners(testSignerA, testSignerB, testSignerC),
		WithRequiredSignatures(2),
		WithVerifiers(testVerifier),
		WithPrometheusRegistry(prometheus.NewRegistry()),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		n.Stop() //nolint:errcheck
	})
	return n
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(NewConfig())
	require.Error(t, err)
}

func TestProposeApproveExecute(t *testing.T) {
	n := newTestNode(t)

	tx, err := n.ProposeGradeRecord(
		"alice",
		"Mathematics",
		"2025-spring",
		92,
		testSignerA,
	)
	require.NoError(t, err)
	assert.Equal(t, multisig.StatusPending, tx.Status)

	_, err = n.Multisig().Approve(tx.ID, testSignerA)
	require.NoError(t, err)
	remaining, err := n.Multisig().Approve(tx.ID, testSignerB)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	executed, err := n.Multisig().Execute(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, multisig.StatusExecuted, executed.Status)
	require.NotNil(t, executed.ExecutedAt)

	// The executed transaction is dispatched to the ledger asynchronously
	// and its receipt persisted
	require.Eventually(t, func() bool {
		_, err := n.Database().GetReceipt(tx.ID)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	receipt, err := n.Database().GetReceipt(tx.ID)
	require.NoError(t, err)
	var parsed LedgerReceipt
	require.NoError(t, json.Unmarshal(receipt, &parsed))
	assert.Equal(t, tx.ID, parsed.TxID)
	assert.Equal(t, 1, parsed.Status)
}

func TestProposeGradeRecordInvalidGrade(t *testing.T) {
	n := newTestNode(t)
	_, err := n.ProposeGradeRecord(
		"alice",
		"Mathematics",
		"2025-spring",
		101,
		testSignerA,
	)
	require.Error(t, err)
}

func TestCommitAndVerifyGrade(t *testing.T) {
	n := newTestNode(t)

	record, salt, err := n.CommitGradeRecord(
		"alice",
		"Physics",
		"2025-fall",
		87,
	)
	require.NoError(t, err)
	assert.NotEmpty(t, record.Commitment)
	assert.NotEmpty(t, salt)

	// Wrong grade fails to verify
	verified, err := n.Proofs().
		VerifyGrade(record.Commitment, 88, salt, testVerifier)
	require.NoError(t, err)
	assert.False(t, verified)

	// Correct grade and salt verify
	verified, err = n.VerifyGrade(record.Commitment, testVerifier, 87, salt)
	require.NoError(t, err)
	assert.True(t, verified)

	status, err := n.Proofs().Status(record.Commitment)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.True(t, status.Verified)
}

func TestCommitAndVerifyCertificate(t *testing.T) {
	n := newTestNode(t)
	issuedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cert, salt, err := n.CommitCertificate(
		"bob",
		"Bachelor of Science",
		issuedAt,
	)
	require.NoError(t, err)

	// Claimed contents must match exactly
	verified, err := n.VerifyCertificate(
		cert.Commitment,
		testVerifier,
		"bob",
		"Bachelor of Arts",
		issuedAt,
		salt,
	)
	require.NoError(t, err)
	assert.False(t, verified)

	verified, err = n.VerifyCertificate(
		cert.Commitment,
		testVerifier,
		"bob",
		"Bachelor of Science",
		issuedAt,
		salt,
	)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestNodeStats(t *testing.T) {
	n := newTestNode(t)

	_, err := n.ProposeGradeRecord(
		"alice", "Math", "2025-spring", 75, testSignerA,
	)
	require.NoError(t, err)
	_, _, err = n.CommitGradeRecord("alice", "Math", "2025-spring", 75)
	require.NoError(t, err)
	_, _, err = n.CommitCertificate("alice", "Diploma", time.Now())
	require.NoError(t, err)

	stats, err := n.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Multisig.TotalSigners)
	assert.Equal(t, 1, stats.Multisig.PendingTransactions)
	assert.Equal(t, 2, stats.Commitments)
	assert.Equal(t, 1, stats.GradeRecords)
	assert.Equal(t, 1, stats.Certificates)
}

func TestNodeStopIdempotent(t *testing.T) {
	n := newTestNode(t)
	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())
}

func TestNodeRunStop(t *testing.T) {
	n := newTestNode(t)
	done := make(chan error, 1)
	go func() {
		done <- n.Run(context.Background())
	}()
	require.NoError(t, n.Stop())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
