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

package database

import (
	"encoding/json"
	"fmt"

	"github.com/edulabs-io/educhain/credential"
	"github.com/edulabs-io/educhain/database/models"
	"github.com/edulabs-io/educhain/multisig"
	"github.com/edulabs-io/educhain/proof"
)

// TransactionStore returns a multisig transaction store backed by the
// metadata database
func (d *Database) TransactionStore() multisig.TransactionStore {
	return &transactionStore{db: d}
}

// ProofStore returns a proof registry store backed by the metadata database
func (d *Database) ProofStore() proof.Store {
	return &proofStore{db: d}
}

// CredentialStore returns a credential store backed by the metadata database
func (d *Database) CredentialStore() credential.Store {
	return &credentialStore{db: d}
}

// decodePayload reconstructs a concrete payload from its stored kind and
// JSON encoding
func decodePayload(kind string, data []byte) (multisig.Payload, error) {
	switch kind {
	case "":
		return nil, nil
	case multisig.RecordProposal{}.PayloadKind():
		var ret multisig.RecordProposal
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, fmt.Errorf("decode record payload: %w", err)
		}
		return ret, nil
	case multisig.CertificateProposal{}.PayloadKind():
		var ret multisig.CertificateProposal
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, fmt.Errorf("decode certificate payload: %w", err)
		}
		return ret, nil
	case multisig.CustomProposal{}.PayloadKind():
		var ret multisig.CustomProposal
		if err := json.Unmarshal(data, &ret); err != nil {
			return nil, fmt.Errorf("decode custom payload: %w", err)
		}
		return ret, nil
	default:
		return nil, fmt.Errorf("unknown payload kind: %s", kind)
	}
}

func transactionToModel(
	tx *multisig.Transaction,
) (*models.Transaction, error) {
	ret := &models.Transaction{
		TxID:        tx.ID,
		Description: tx.Description,
		Status:      string(tx.Status),
		CreatedBy:   tx.CreatedBy,
		CreatedAt:   tx.CreatedAt,
		ExecutedAt:  tx.ExecutedAt,
	}
	if tx.Payload != nil {
		payload, err := json.Marshal(tx.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		ret.PayloadKind = tx.Payload.PayloadKind()
		ret.Payload = payload
	}
	signatures, err := json.Marshal(tx.Signatures)
	if err != nil {
		return nil, fmt.Errorf("encode signatures: %w", err)
	}
	ret.Signatures = signatures
	return ret, nil
}

func transactionFromModel(
	tx *models.Transaction,
) (*multisig.Transaction, error) {
	payload, err := decodePayload(tx.PayloadKind, tx.Payload)
	if err != nil {
		return nil, err
	}
	var signatures []multisig.Signature
	if len(tx.Signatures) > 0 {
		if err := json.Unmarshal(tx.Signatures, &signatures); err != nil {
			return nil, fmt.Errorf("decode signatures: %w", err)
		}
	}
	return &multisig.Transaction{
		ID:          tx.TxID,
		Description: tx.Description,
		Payload:     payload,
		Signatures:  signatures,
		Status:      multisig.TransactionStatus(tx.Status),
		CreatedBy:   tx.CreatedBy,
		CreatedAt:   tx.CreatedAt,
		ExecutedAt:  tx.ExecutedAt,
	}, nil
}

type transactionStore struct {
	db *Database
}

func (s *transactionStore) AddSigner(signer string) error {
	return s.db.Metadata().AddSigner(signer, nil)
}

func (s *transactionStore) Signers() ([]string, error) {
	return s.db.Metadata().GetSigners(nil)
}

func (s *transactionStore) AddTransaction(tx *multisig.Transaction) error {
	tmpTx, err := transactionToModel(tx)
	if err != nil {
		return err
	}
	return s.db.Metadata().AddTransaction(tmpTx, nil)
}

func (s *transactionStore) UpdateTransaction(tx *multisig.Transaction) error {
	tmpTx, err := transactionToModel(tx)
	if err != nil {
		return err
	}
	return s.db.Metadata().UpdateTransaction(tmpTx, nil)
}

func (s *transactionStore) Transaction(
	id string,
) (*multisig.Transaction, bool, error) {
	tmpTx, err := s.db.Metadata().GetTransaction(id, nil)
	if err != nil {
		return nil, false, err
	}
	if tmpTx == nil {
		return nil, false, nil
	}
	ret, err := transactionFromModel(tmpTx)
	if err != nil {
		return nil, false, err
	}
	return ret, true, nil
}

func (s *transactionStore) Transactions() ([]*multisig.Transaction, error) {
	tmpTxs, err := s.db.Metadata().GetTransactions(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*multisig.Transaction, 0, len(tmpTxs))
	for i := range tmpTxs {
		tx, err := transactionFromModel(&tmpTxs[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, tx)
	}
	return ret, nil
}

func (s *transactionStore) Close() error {
	// Lifecycle is owned by the database
	return nil
}

type proofStore struct {
	db *Database
}

func (s *proofStore) AddVerifier(verifier string) error {
	return s.db.Metadata().AddVerifier(verifier, nil)
}

func (s *proofStore) Verifiers() ([]string, error) {
	return s.db.Metadata().GetVerifiers(nil)
}

func (s *proofStore) AddProofRecord(record *proof.ProofRecord) error {
	return s.db.Metadata().AddProofRecord(
		&models.ProofRecord{
			Commitment: record.Commitment,
			Kind:       string(record.Kind),
			Prover:     record.Prover,
			ProofBlob:  record.ProofBlob,
			Verified:   record.Verified,
			CreatedAt:  record.CreatedAt,
		},
		nil,
	)
}

func (s *proofStore) UpdateProofRecord(record *proof.ProofRecord) error {
	return s.db.Metadata().UpdateProofRecord(
		&models.ProofRecord{
			Commitment: record.Commitment,
			Kind:       string(record.Kind),
			Prover:     record.Prover,
			ProofBlob:  record.ProofBlob,
			Verified:   record.Verified,
			CreatedAt:  record.CreatedAt,
		},
		nil,
	)
}

func (s *proofStore) RemoveProofRecord(commitment string) error {
	return s.db.Metadata().DeleteProofRecord(commitment, nil)
}

func (s *proofStore) ProofRecord(
	commitment string,
) (*proof.ProofRecord, bool, error) {
	tmpRecord, err := s.db.Metadata().GetProofRecord(commitment, nil)
	if err != nil {
		return nil, false, err
	}
	if tmpRecord == nil {
		return nil, false, nil
	}
	return &proof.ProofRecord{
		Commitment: tmpRecord.Commitment,
		Kind:       proof.CommitmentKind(tmpRecord.Kind),
		Prover:     tmpRecord.Prover,
		ProofBlob:  tmpRecord.ProofBlob,
		Verified:   tmpRecord.Verified,
		CreatedAt:  tmpRecord.CreatedAt,
	}, true, nil
}

func (s *proofStore) Commitments() ([]string, error) {
	tmpRecords, err := s.db.Metadata().GetProofRecords(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(tmpRecords))
	for _, record := range tmpRecords {
		ret = append(ret, record.Commitment)
	}
	return ret, nil
}

func (s *proofStore) Close() error {
	// Lifecycle is owned by the database
	return nil
}

type credentialStore struct {
	db *Database
}

func (s *credentialStore) AddGradeRecord(record *credential.GradeRecord) error {
	return s.db.Metadata().AddGradeRecord(
		&models.GradeRecord{
			RecordID:   record.ID,
			Student:    record.Student,
			Subject:    record.Subject,
			Semester:   record.Semester,
			Grade:      record.Grade,
			Commitment: record.Commitment,
			TxHash:     record.TxHash,
			CreatedAt:  record.CreatedAt,
		},
		nil,
	)
}

func (s *credentialStore) AddCertificate(cert *credential.Certificate) error {
	return s.db.Metadata().AddCertificate(
		&models.Certificate{
			CertID:     cert.ID,
			Student:    cert.Student,
			CertType:   cert.CertType,
			IssuedAt:   cert.IssuedAt,
			Commitment: cert.Commitment,
			TxHash:     cert.TxHash,
			CreatedAt:  cert.CreatedAt,
		},
		nil,
	)
}

func (s *credentialStore) GradeRecords() ([]*credential.GradeRecord, error) {
	tmpRecords, err := s.db.Metadata().GetGradeRecords(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*credential.GradeRecord, 0, len(tmpRecords))
	for _, record := range tmpRecords {
		ret = append(ret, &credential.GradeRecord{
			ID:         record.RecordID,
			Student:    record.Student,
			Subject:    record.Subject,
			Semester:   record.Semester,
			Grade:      record.Grade,
			Commitment: record.Commitment,
			TxHash:     record.TxHash,
			CreatedAt:  record.CreatedAt,
		})
	}
	return ret, nil
}

func (s *credentialStore) Certificates() ([]*credential.Certificate, error) {
	tmpCerts, err := s.db.Metadata().GetCertificates(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]*credential.Certificate, 0, len(tmpCerts))
	for _, cert := range tmpCerts {
		ret = append(ret, &credential.Certificate{
			ID:         cert.CertID,
			Student:    cert.Student,
			CertType:   cert.CertType,
			IssuedAt:   cert.IssuedAt,
			Commitment: cert.Commitment,
			TxHash:     cert.TxHash,
			CreatedAt:  cert.CreatedAt,
		})
	}
	return ret, nil
}

func (s *credentialStore) Close() error {
	// Lifecycle is owned by the database
	return nil
}
