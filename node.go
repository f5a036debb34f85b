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

// Package educhain assembles the student records node: a multi-party
// approval engine gating record changes, a commitment registry with
// verifier-gated proof checks, and a credential binding service, all
// sharing an event bus and pluggable storage.
package educhain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edulabs-io/educhain/commitment"
	"github.com/edulabs-io/educhain/credential"
	"github.com/edulabs-io/educhain/database"
	"github.com/edulabs-io/educhain/event"
	"github.com/edulabs-io/educhain/multisig"
	"github.com/edulabs-io/educhain/proof"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	multisig      *multisig.Engine
	proofs        *proof.Registry
	credentials   *credential.Service
	ledger        LedgerSubmitter
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	// Configure tracing
	if cfg.tracing {
		if err := n.setupTracing(); err != nil {
			return nil, err
		}
	}
	// Load database
	db, err := database.New(
		cfg.logger,
		cfg.dataDir,
		cfg.blobPlugin,
		cfg.metadataPlugin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Initialize approval engine
	engine, err := multisig.NewEngine(multisig.EngineConfig{
		PromRegistry:       cfg.promRegistry,
		Logger:             cfg.logger,
		EventBus:           n.eventBus,
		Store:              db.TransactionStore(),
		Signers:            cfg.signers,
		RequiredSignatures: cfg.requiredSignatures,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create approval engine: %w", err)
	}
	n.multisig = engine
	// Initialize proof registry
	registry, err := proof.NewRegistry(proof.RegistryConfig{
		PromRegistry: cfg.promRegistry,
		Logger:       cfg.logger,
		EventBus:     n.eventBus,
		Store:        db.ProofStore(),
		Verifiers:    cfg.verifiers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proof registry: %w", err)
	}
	n.proofs = registry
	// Initialize credential binding service
	credentials, err := credential.NewService(credential.ServiceConfig{
		PromRegistry: cfg.promRegistry,
		Logger:       cfg.logger,
		EventBus:     n.eventBus,
		Store:        db.CredentialStore(),
		Registry:     registry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create credential service: %w", err)
	}
	n.credentials = credentials
	// Configure ledger submitter
	n.ledger = cfg.ledgerSubmitter
	if n.ledger == nil {
		n.ledger = NewMockLedger()
	}
	// Dispatch executed transactions to the ledger
	n.eventBus.SubscribeFunc(
		multisig.TransactionExecutedEventType,
		n.handleTransactionExecuted,
	)
	return n, nil
}

// Run blocks until the node is stopped
func (n *Node) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Stop the event bus first so no new ledger dispatches start
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Flush state and close database
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

// handleTransactionExecuted submits an executed transaction to the ledger
// and records the returned receipt
func (n *Node) handleTransactionExecuted(evt event.Event) {
	data, ok := evt.Data.(multisig.TransactionExecutedEvent)
	if !ok {
		return
	}
	tx, err := n.multisig.Transaction(data.ID)
	if err != nil {
		n.config.logger.Error(
			"failed to load executed transaction",
			"component", "node",
			"tx_id", data.ID,
			"error", err,
		)
		return
	}
	receipt, err := n.ledger.Submit(context.Background(), tx)
	if err != nil {
		n.config.logger.Error(
			"failed to submit transaction to ledger",
			"component", "node",
			"tx_id", data.ID,
			"error", err,
		)
		return
	}
	if err := n.db.StoreReceipt(tx.ID, receipt); err != nil {
		n.config.logger.Error(
			"failed to store ledger receipt",
			"component", "node",
			"tx_id", data.ID,
			"error", err,
		)
		return
	}
	n.config.logger.Info(
		"stored ledger receipt",
		"component", "node",
		"tx_id", data.ID,
	)
}

// Multisig returns the approval engine
func (n *Node) Multisig() *multisig.Engine {
	return n.multisig
}

// Proofs returns the proof registry
func (n *Node) Proofs() *proof.Registry {
	return n.proofs
}

// Credentials returns the credential binding service
func (n *Node) Credentials() *credential.Service {
	return n.credentials
}

// Database returns the underlying database
func (n *Node) Database() *database.Database {
	return n.db
}

// EventBus returns the shared event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// ProposeGradeRecord proposes a grade record change through the approval
// engine. The record is not created until the transaction is approved and
// executed.
func (n *Node) ProposeGradeRecord(
	student string,
	subject string,
	semester string,
	grade int,
	createdBy string,
) (*multisig.Transaction, error) {
	if grade < commitment.MinGrade || grade > commitment.MaxGrade {
		return nil, &commitment.InvalidValueError{Value: grade}
	}
	return n.multisig.NewTransaction(
		fmt.Sprintf("add %s grade for %s", subject, student),
		multisig.RecordProposal{
			Student:  student,
			Subject:  subject,
			Semester: semester,
			Grade:    grade,
		},
		createdBy,
	)
}

// ProposeCertificate proposes a certificate issuance through the approval
// engine
func (n *Node) ProposeCertificate(
	student string,
	certType string,
	issuedAt time.Time,
	metadata map[string]string,
	createdBy string,
) (*multisig.Transaction, error) {
	return n.multisig.NewTransaction(
		fmt.Sprintf("issue %s certificate for %s", certType, student),
		multisig.CertificateProposal{
			Student:  student,
			CertType: certType,
			IssuedAt: issuedAt,
			Metadata: metadata,
		},
		createdBy,
	)
}

// CommitGradeRecord creates a salted commitment for a grade, registers it,
// and binds it to a new grade record. The salt is returned to the caller
// and must be retained to prove the grade later; it is not persisted.
func (n *Node) CommitGradeRecord(
	student string,
	subject string,
	semester string,
	grade int,
) (*credential.GradeRecord, string, error) {
	salt, err := commitment.GenerateSalt()
	if err != nil {
		return nil, "", err
	}
	c, err := commitment.CommitGrade(grade, salt)
	if err != nil {
		return nil, "", err
	}
	record, err := n.credentials.BindGradeCommitment(
		student,
		subject,
		semester,
		grade,
		c,
	)
	if err != nil {
		return nil, "", err
	}
	return record, salt, nil
}

// CommitCertificate creates a salted commitment for a certificate payload,
// registers it, and binds it to a new certificate. The salt is returned to
// the caller and not persisted.
func (n *Node) CommitCertificate(
	student string,
	certType string,
	issuedAt time.Time,
) (*credential.Certificate, string, error) {
	salt, err := commitment.GenerateSalt()
	if err != nil {
		return nil, "", err
	}
	c, err := commitment.CommitCertificate(
		certificatePayload(student, certType, issuedAt),
		salt,
	)
	if err != nil {
		return nil, "", err
	}
	cert, err := n.credentials.BindCertificateCommitment(
		student,
		certType,
		issuedAt,
		c,
	)
	if err != nil {
		return nil, "", err
	}
	return cert, salt, nil
}

// certificatePayload is the canonical payload hashed into a certificate
// commitment
func certificatePayload(
	student string,
	certType string,
	issuedAt time.Time,
) map[string]any {
	return map[string]any{
		"student":  student,
		"certType": certType,
		"issuedAt": issuedAt.UTC().Format(time.RFC3339),
	}
}

// VerifyCertificate recomputes a certificate commitment from its claimed
// contents and checks it against the registry
func (n *Node) VerifyCertificate(
	commitmentID string,
	caller string,
	student string,
	certType string,
	issuedAt time.Time,
	salt string,
) (bool, error) {
	return n.proofs.VerifyCertificate(
		commitmentID,
		certificatePayload(student, certType, issuedAt),
		salt,
		caller,
	)
}

// VerifyGrade recomputes a grade commitment from its claimed value and
// checks it against the registry
func (n *Node) VerifyGrade(
	commitmentID string,
	caller string,
	grade int,
	salt string,
) (bool, error) {
	return n.proofs.VerifyGrade(commitmentID, grade, salt, caller)
}

// Stats is an aggregate snapshot across the node's engines
type Stats struct {
	Multisig     multisig.Stats
	Commitments  int
	GradeRecords int
	Certificates int
}

// Stats returns an aggregate snapshot of approval, proof, and credential
// state
func (n *Node) Stats() (Stats, error) {
	multisigStats, err := n.multisig.Stats()
	if err != nil {
		return Stats{}, err
	}
	commitments, err := n.proofs.Commitments()
	if err != nil {
		return Stats{}, err
	}
	records, certs, err := n.credentials.Counts()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Multisig:     multisigStats,
		Commitments:  len(commitments),
		GradeRecords: records,
		Certificates: certs,
	}, nil
}
