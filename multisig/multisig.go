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

// Package multisig implements the multi-party approval engine: a signer
// registry and a threshold-gated transaction state machine. Reaching the
// signature threshold moves a transaction to approved; executing it is a
// separate explicit step, at which point the coordination layer dispatches
// the action to the external ledger collaborator.
package multisig

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edulabs-io/educhain/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	TransactionCreatedEventType   event.EventType = "multisig.tx_created"
	TransactionApprovedEventType  event.EventType = "multisig.tx_approved"
	TransactionExecutedEventType  event.EventType = "multisig.tx_executed"
	TransactionCancelledEventType event.EventType = "multisig.tx_cancelled"
)

type TransactionCreatedEvent struct {
	ID          string
	Description string
}

type TransactionApprovedEvent struct {
	ID         string
	Signatures int
}

type TransactionExecutedEvent struct {
	ID      string
	Payload Payload
}

type TransactionCancelledEvent struct {
	ID string
}

// ErrInvalidThreshold is returned when the configured signature threshold
// is not a positive number
var ErrInvalidThreshold = errors.New("required signatures must be at least 1")

type EngineConfig struct {
	PromRegistry       prometheus.Registerer
	Logger             *slog.Logger
	EventBus           *event.EventBus
	Store              TransactionStore
	Signers            []string
	RequiredSignatures int
}

// Engine owns the signer set and the transaction table. All mutations are
// serialized behind a single lock so a threshold check is always evaluated
// atomically with the signature append that triggers it.
type Engine struct {
	config  EngineConfig
	metrics struct {
		txsCreated prometheus.Counter
		signatures prometheus.Counter
		txsByState *prometheus.GaugeVec
	}
	store     TransactionStore
	logger    *slog.Logger
	eventBus  *event.EventBus
	txCounter uint64
	sync.Mutex
}

func NewEngine(config EngineConfig) (*Engine, error) {
	if config.RequiredSignatures < 1 {
		return nil, ErrInvalidThreshold
	}
	e := &Engine{
		config:   config,
		store:    config.Store,
		eventBus: config.EventBus,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		e.logger = config.Logger
	}
	if e.store == nil {
		e.store = NewMemoryStore()
	}
	// Seed initial signer set
	for _, signer := range config.Signers {
		if err := e.AddSigner(signer); err != nil {
			return nil, err
		}
	}
	// Resume the transaction counter from existing store state
	txs, err := e.store.Transactions()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	for _, tx := range txs {
		if n, ok := parseTransactionID(tx.ID); ok && n > e.txCounter {
			e.txCounter = n
		}
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	e.metrics.txsCreated = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_multisig_transactions_created_total",
			Help: "total transactions proposed",
		},
	)
	e.metrics.signatures = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_multisig_signatures_total",
			Help: "total signatures recorded",
		},
	)
	e.metrics.txsByState = promautoFactory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "educhain_multisig_transactions",
			Help: "current transaction count by status",
		},
		[]string{"status"},
	)
	return e, nil
}

func parseTransactionID(id string) (uint64, bool) {
	numPart, found := strings.CutPrefix(id, "tx_")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// generateSignatureToken returns a random token recorded alongside each
// approval. It is illustrative bookkeeping, not a cryptographic signature
func generateSignatureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signature token: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// AddSigner appends a new signer to the signer set. Insertion order is
// preserved for display numbering only
func (e *Engine) AddSigner(signer string) error {
	e.Lock()
	defer e.Unlock()
	signers, err := e.store.Signers()
	if err != nil {
		return fmt.Errorf("failed to load signers: %w", err)
	}
	for _, existing := range signers {
		if existing == signer {
			return &DuplicateSignerError{Signer: signer}
		}
	}
	if err := e.store.AddSigner(signer); err != nil {
		return fmt.Errorf("failed to add signer: %w", err)
	}
	e.logger.Info(
		"added signer",
		"component", "multisig",
		"signer", signer,
	)
	return nil
}

// Signers returns the display-ordered signer set and the signature
// threshold
func (e *Engine) Signers() ([]string, int, error) {
	signers, err := e.store.Signers()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load signers: %w", err)
	}
	return signers, e.config.RequiredSignatures, nil
}

// NewTransaction proposes a new pending transaction and assigns it the
// next sequential id
func (e *Engine) NewTransaction(
	description string,
	payload Payload,
	createdBy string,
) (*Transaction, error) {
	e.Lock()
	defer e.Unlock()
	e.txCounter++
	tx := &Transaction{
		ID:          fmt.Sprintf("tx_%d", e.txCounter),
		Description: description,
		Payload:     payload,
		Signatures:  []Signature{},
		Status:      StatusPending,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}
	if err := e.store.AddTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}
	e.metrics.txsCreated.Inc()
	e.metrics.txsByState.WithLabelValues(string(StatusPending)).Inc()
	e.logger.Info(
		"created transaction",
		"component", "multisig",
		"tx_id", tx.ID,
		"description", description,
	)
	if e.eventBus != nil {
		e.eventBus.Publish(
			TransactionCreatedEventType,
			event.NewEvent(
				TransactionCreatedEventType,
				TransactionCreatedEvent{
					ID:          tx.ID,
					Description: description,
				},
			),
		)
	}
	return tx.clone(), nil
}

// Approve records a signature from the given signer. When the signature
// count reaches the threshold the transaction moves to approved in the
// same critical section, so exactly one approval triggers the transition.
// Returns the number of signatures still required.
func (e *Engine) Approve(txID string, signer string) (int, error) {
	e.Lock()
	defer e.Unlock()
	tx, ok, err := e.store.Transaction(txID)
	if err != nil {
		return 0, fmt.Errorf("failed to load transaction: %w", err)
	}
	if !ok {
		return 0, &TransactionNotFoundError{ID: txID}
	}
	if tx.Status != StatusPending {
		return 0, &InvalidStateError{ID: txID, Status: tx.Status, Op: "approve"}
	}
	signers, err := e.store.Signers()
	if err != nil {
		return 0, fmt.Errorf("failed to load signers: %w", err)
	}
	authorized := false
	for _, existing := range signers {
		if existing == signer {
			authorized = true
			break
		}
	}
	if !authorized {
		return 0, &NotAuthorizedError{Signer: signer}
	}
	if tx.signedBy(signer) {
		return 0, &AlreadySignedError{ID: txID, Signer: signer}
	}
	token, err := generateSignatureToken()
	if err != nil {
		return 0, err
	}
	tx.Signatures = append(tx.Signatures, Signature{
		Signer:   signer,
		SignedAt: time.Now(),
		Token:    token,
	})
	// Threshold auto-transition: the signature that reaches the threshold
	// moves the transaction to approved. Execution remains a separate
	// explicit step.
	if len(tx.Signatures) >= e.config.RequiredSignatures {
		tx.Status = StatusApproved
	}
	if err := e.store.UpdateTransaction(tx); err != nil {
		return 0, fmt.Errorf("failed to store transaction: %w", err)
	}
	e.metrics.signatures.Inc()
	e.logger.Info(
		"recorded signature",
		"component", "multisig",
		"tx_id", txID,
		"signer", signer,
		"signatures", len(tx.Signatures),
	)
	if tx.Status == StatusApproved {
		e.metrics.txsByState.WithLabelValues(string(StatusPending)).Dec()
		e.metrics.txsByState.WithLabelValues(string(StatusApproved)).Inc()
		e.logger.Info(
			"transaction approved",
			"component", "multisig",
			"tx_id", txID,
		)
		if e.eventBus != nil {
			e.eventBus.Publish(
				TransactionApprovedEventType,
				event.NewEvent(
					TransactionApprovedEventType,
					TransactionApprovedEvent{
						ID:         txID,
						Signatures: len(tx.Signatures),
					},
				),
			)
		}
	}
	remaining := e.config.RequiredSignatures - len(tx.Signatures)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Execute moves an approved transaction to executed. This is the point at
// which the coordination layer submits the action to the external ledger
// collaborator.
func (e *Engine) Execute(txID string) (*Transaction, error) {
	e.Lock()
	defer e.Unlock()
	tx, ok, err := e.store.Transaction(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if !ok {
		return nil, &TransactionNotFoundError{ID: txID}
	}
	if tx.Status != StatusApproved {
		return nil, &InvalidStateError{ID: txID, Status: tx.Status, Op: "execute"}
	}
	if len(tx.Signatures) < e.config.RequiredSignatures {
		return nil, &InvalidStateError{ID: txID, Status: tx.Status, Op: "execute"}
	}
	executedAt := time.Now()
	tx.Status = StatusExecuted
	tx.ExecutedAt = &executedAt
	if err := e.store.UpdateTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}
	e.metrics.txsByState.WithLabelValues(string(StatusApproved)).Dec()
	e.metrics.txsByState.WithLabelValues(string(StatusExecuted)).Inc()
	e.logger.Info(
		"executed transaction",
		"component", "multisig",
		"tx_id", txID,
	)
	if e.eventBus != nil {
		e.eventBus.Publish(
			TransactionExecutedEventType,
			event.NewEvent(
				TransactionExecutedEventType,
				TransactionExecutedEvent{
					ID:      txID,
					Payload: tx.Payload,
				},
			),
		)
	}
	return tx.clone(), nil
}

// Cancel moves a pending or approved transaction to cancelled
func (e *Engine) Cancel(txID string) error {
	e.Lock()
	defer e.Unlock()
	tx, ok, err := e.store.Transaction(txID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}
	if !ok {
		return &TransactionNotFoundError{ID: txID}
	}
	if tx.Status != StatusPending && tx.Status != StatusApproved {
		return &InvalidStateError{ID: txID, Status: tx.Status, Op: "cancel"}
	}
	prevStatus := tx.Status
	tx.Status = StatusCancelled
	if err := e.store.UpdateTransaction(tx); err != nil {
		return fmt.Errorf("failed to store transaction: %w", err)
	}
	e.metrics.txsByState.WithLabelValues(string(prevStatus)).Dec()
	e.metrics.txsByState.WithLabelValues(string(StatusCancelled)).Inc()
	e.logger.Info(
		"cancelled transaction",
		"component", "multisig",
		"tx_id", txID,
	)
	if e.eventBus != nil {
		e.eventBus.Publish(
			TransactionCancelledEventType,
			event.NewEvent(
				TransactionCancelledEventType,
				TransactionCancelledEvent{ID: txID},
			),
		)
	}
	return nil
}

// Transaction returns a copy of the transaction with the given id
func (e *Engine) Transaction(txID string) (*Transaction, error) {
	tx, ok, err := e.store.Transaction(txID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if !ok {
		return nil, &TransactionNotFoundError{ID: txID}
	}
	return tx, nil
}

// TransactionDetail returns a transaction with signature progress attached
func (e *Engine) TransactionDetail(txID string) (*TransactionDetail, error) {
	tx, err := e.Transaction(txID)
	if err != nil {
		return nil, err
	}
	return &TransactionDetail{
		Transaction:        *tx,
		SignaturesCount:    len(tx.Signatures),
		SignaturesRequired: e.config.RequiredSignatures,
		CanExecute: tx.Status == StatusApproved &&
			len(tx.Signatures) >= e.config.RequiredSignatures,
	}, nil
}

// Transactions returns all transactions in creation order
func (e *Engine) Transactions() ([]*Transaction, error) {
	return e.store.Transactions()
}

// HasApproved reports whether the given signer has signed the transaction
func (e *Engine) HasApproved(txID string, signer string) (bool, error) {
	tx, err := e.Transaction(txID)
	if err != nil {
		return false, err
	}
	return tx.signedBy(signer), nil
}

// Approvals returns the recorded signatures for a transaction in
// call-arrival order
func (e *Engine) Approvals(txID string) ([]Signature, error) {
	tx, err := e.Transaction(txID)
	if err != nil {
		return nil, err
	}
	return tx.Signatures, nil
}

// Stats returns counts by status along with signer set size and the
// configured threshold
func (e *Engine) Stats() (Stats, error) {
	signers, err := e.store.Signers()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load signers: %w", err)
	}
	txs, err := e.store.Transactions()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	stats := Stats{
		TotalSigners:       len(signers),
		RequiredSignatures: e.config.RequiredSignatures,
		TotalTransactions:  len(txs),
	}
	for _, tx := range txs {
		switch tx.Status {
		case StatusPending:
			stats.PendingTransactions++
		case StatusApproved:
			stats.ApprovedTransactions++
		case StatusExecuted:
			stats.ExecutedTransactions++
		case StatusCancelled:
			stats.CancelledTransactions++
		}
	}
	return stats, nil
}
