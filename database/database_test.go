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

package database_test

import (
	"testing"
	"time"

	"github.com/edulabs-io/educhain/credential"
	"github.com/edulabs-io/educhain/database"
	"github.com/edulabs-io/educhain/multisig"
	"github.com/edulabs-io/educhain/proof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(nil, t.TempDir(), "badger", "sqlite")
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

func TestTransactionStoreRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	store := db.TransactionStore()

	require.NoError(t, store.AddSigner("0x742d35Cc6634C0532925a3b844Bc9e7595f6E123"))
	require.NoError(t, store.AddSigner("0x8ba1f109551bD432803012645Ac136ddd64DBA72"))
	signers, err := store.Signers()
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{
			"0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
			"0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		},
		signers,
	)

	tx := &multisig.Transaction{
		ID:          "tx_1",
		Description: "record grade for alice",
		Payload: multisig.RecordProposal{
			Student:  "alice",
			Subject:  "Mathematics",
			Semester: "2025-spring",
			Grade:    92,
		},
		Signatures: []multisig.Signature{},
		Status:     multisig.StatusPending,
		CreatedBy:  "0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.AddTransaction(tx))

	ret, ok, err := store.Transaction("tx_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tx.ID, ret.ID)
	assert.Equal(t, tx.Description, ret.Description)
	assert.Equal(t, multisig.StatusPending, ret.Status)
	payload, ok := ret.Payload.(multisig.RecordProposal)
	require.True(t, ok)
	assert.Equal(t, "alice", payload.Student)
	assert.Equal(t, 92, payload.Grade)

	// Update with a signature and new status
	now := time.Now()
	tx.Signatures = append(tx.Signatures, multisig.Signature{
		Signer:   "0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
		SignedAt: now,
	})
	tx.Status = multisig.StatusApproved
	require.NoError(t, store.UpdateTransaction(tx))

	ret, ok, err = store.Transaction("tx_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, multisig.StatusApproved, ret.Status)
	require.Len(t, ret.Signatures, 1)
	assert.Equal(
		t,
		"0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
		ret.Signatures[0].Signer,
	)

	// Unknown transaction
	_, ok, err = store.Transaction("tx_999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionStoreOrder(t *testing.T) {
	db := newTestDatabase(t)
	store := db.TransactionStore()
	for _, id := range []string{"tx_1", "tx_2", "tx_3"} {
		require.NoError(t, store.AddTransaction(&multisig.Transaction{
			ID:        id,
			Status:    multisig.StatusPending,
			CreatedAt: time.Now(),
		}))
	}
	txs, err := store.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "tx_1", txs[0].ID)
	assert.Equal(t, "tx_3", txs[2].ID)
}

func TestProofStoreRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	store := db.ProofStore()

	require.NoError(t, store.AddVerifier("0x2546BcD3c84621e976D8185a91A922aE77ECEc30"))
	verifiers, err := store.Verifiers()
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"0x2546BcD3c84621e976D8185a91A922aE77ECEc30"},
		verifiers,
	)

	record := &proof.ProofRecord{
		Commitment: "0xabc123",
		Kind:       proof.KindGrade,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.AddProofRecord(record))

	ret, ok, err := store.ProofRecord("0xabc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, proof.KindGrade, ret.Kind)
	assert.False(t, ret.Verified)

	record.Prover = "alice"
	record.ProofBlob = []byte(`{"value":87}`)
	record.Verified = true
	require.NoError(t, store.UpdateProofRecord(record))

	ret, ok, err = store.ProofRecord("0xabc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, ret.Verified)
	assert.Equal(t, "alice", ret.Prover)
	assert.Equal(t, []byte(`{"value":87}`), ret.ProofBlob)

	commitments, err := store.Commitments()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc123"}, commitments)
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	store := db.CredentialStore()

	require.NoError(t, store.AddGradeRecord(&credential.GradeRecord{
		ID:         "rec_1",
		Student:    "alice",
		Subject:    "Physics",
		Semester:   "2025-fall",
		Grade:      78,
		Commitment: "0xdef456",
		TxHash:     "0x1111",
		CreatedAt:  time.Now(),
	}))
	records, err := store.GradeRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec_1", records[0].ID)
	assert.Equal(t, 78, records[0].Grade)

	issuedAt := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddCertificate(&credential.Certificate{
		ID:         "cert_1",
		Student:    "alice",
		CertType:   "Diploma",
		IssuedAt:   issuedAt,
		Commitment: "0xfee789",
		TxHash:     "0x2222",
		CreatedAt:  time.Now(),
	}))
	certs, err := store.Certificates()
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "cert_1", certs[0].ID)
	assert.Equal(t, issuedAt.Unix(), certs[0].IssuedAt.Unix())
}

func TestReceipts(t *testing.T) {
	db := newTestDatabase(t)

	_, err := db.GetReceipt("tx_999")
	require.Error(t, err)

	require.NoError(t, db.StoreReceipt("tx_1", []byte(`{"status":1}`)))
	receipt, err := db.GetReceipt("tx_1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"status":1}`), receipt)

	require.NoError(t, db.StoreReceipt("tx_2", []byte(`{"status":1}`)))
	ids, err := db.Blob().GetReceiptIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tx_1", "tx_2"}, ids)
}

func TestEngineOverDatabaseStore(t *testing.T) {
	// The approval engine should work unchanged over the database-backed
	// store
	db := newTestDatabase(t)
	engine, err := multisig.NewEngine(multisig.EngineConfig{
		Store: db.TransactionStore(),
		Signers: []string{
			"0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
			"0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		},
		RequiredSignatures: 2,
	})
	require.NoError(t, err)

	tx, err := engine.NewTransaction(
		"record grade",
		multisig.RecordProposal{
			Student: "bob", Subject: "Chemistry",
			Semester: "2025-fall", Grade: 65,
		},
		"0x742d35Cc6634C0532925a3b844Bc9e7595f6E123",
	)
	require.NoError(t, err)

	_, err = engine.Approve(tx.ID, "0x742d35Cc6634C0532925a3b844Bc9e7595f6E123")
	require.NoError(t, err)
	remaining, err := engine.Approve(
		tx.ID,
		"0x8ba1f109551bD432803012645Ac136ddd64DBA72",
	)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	ret, err := engine.Transaction(tx.ID)
	require.NoError(t, err)
	assert.Equal(t, multisig.StatusApproved, ret.Status)
}
