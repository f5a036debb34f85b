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

// Package proof owns the authoritative state of issued commitments:
// which exist, who claims them, and whether an authorized verifier has
// confirmed a revealed value against them. Submission and verification
// are deliberately separate steps; a claimant asserts, a verifier checks.
// A verification mismatch is a normal false result, not an error.
//
// The privacy property is that the hidden value never appears in the
// clear during the commitment phase. There is no cryptographic soundness
// against a verifier colluding with a claimant who knows multiple
// (value, salt) preimages; that would require a real zero-knowledge
// protocol rather than a hash commitment.
package proof

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edulabs-io/educhain/commitment"
	"github.com/edulabs-io/educhain/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	CommitmentRegisteredEventType event.EventType = "proof.commitment_registered"
	ProofSubmittedEventType       event.EventType = "proof.submitted"
	VerificationEventType         event.EventType = "proof.verification"
)

type CommitmentRegisteredEvent struct {
	Commitment string
	Kind       CommitmentKind
}

type ProofSubmittedEvent struct {
	Commitment string
	Prover     string
}

type VerificationEvent struct {
	Commitment string
	Caller     string
	Verified   bool
}

// CommitmentKind records which codec path produced a commitment, so the
// registry knows how to recompute candidates during verification
type CommitmentKind string

const (
	KindGrade       CommitmentKind = "grade"
	KindCertificate CommitmentKind = "certificate"
)

// ProofRecord tracks the lifecycle of a single commitment: created on
// registration, prover set on submission, verified flag set (last check
// wins) on each verifier check
type ProofRecord struct {
	Commitment string
	Kind       CommitmentKind
	Prover     string
	ProofBlob  []byte
	Verified   bool
	CreatedAt  time.Time
}

// clone returns a copy safe to hand to callers
func (r *ProofRecord) clone() *ProofRecord {
	ret := *r
	if r.ProofBlob != nil {
		ret.ProofBlob = make([]byte, len(r.ProofBlob))
		copy(ret.ProofBlob, r.ProofBlob)
	}
	return &ret
}

// Status is the externally visible state of a commitment
type Status struct {
	Exists    bool
	Verified  bool
	Prover    string
	CreatedAt time.Time
}

// DuplicateCommitmentError is returned when registering a commitment that
// already exists
type DuplicateCommitmentError struct {
	Commitment string
}

func (e *DuplicateCommitmentError) Error() string {
	return fmt.Sprintf("commitment %s already registered", e.Commitment)
}

// UnknownCommitmentError is returned when a referenced commitment was
// never registered
type UnknownCommitmentError struct {
	Commitment string
}

func (e *UnknownCommitmentError) Error() string {
	return fmt.Sprintf("commitment %s not registered", e.Commitment)
}

// NotAuthorizedError is returned when the caller is not in the verifier set
type NotAuthorizedError struct {
	Caller string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("caller %s is not an authorized verifier", e.Caller)
}

// DuplicateVerifierError is returned when adding a verifier that already
// exists in the verifier set
type DuplicateVerifierError struct {
	Verifier string
}

func (e *DuplicateVerifierError) Error() string {
	return fmt.Sprintf("verifier %s already exists", e.Verifier)
}

type RegistryConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Store        Store
	Verifiers    []string
}

// Registry is the proof registry engine. All mutations are serialized
// behind a single lock; reads see consistent snapshots.
type Registry struct {
	config  RegistryConfig
	metrics struct {
		commitments   prometheus.Counter
		proofs        prometheus.Counter
		verifications *prometheus.CounterVec
	}
	store    Store
	logger   *slog.Logger
	eventBus *event.EventBus
	sync.Mutex
}

func NewRegistry(config RegistryConfig) (*Registry, error) {
	r := &Registry{
		config:   config,
		store:    config.Store,
		eventBus: config.EventBus,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	// Seed initial verifier set
	for _, verifier := range config.Verifiers {
		if err := r.AddVerifier(verifier); err != nil {
			return nil, err
		}
	}
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	r.metrics.commitments = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_proof_commitments_total",
			Help: "total commitments registered",
		},
	)
	r.metrics.proofs = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_proof_submissions_total",
			Help: "total proofs submitted",
		},
	)
	r.metrics.verifications = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "educhain_proof_verifications_total",
			Help: "total verification checks by result",
		},
		[]string{"result"},
	)
	return r, nil
}

// AddVerifier appends a new verifier to the authorized verifier set
func (r *Registry) AddVerifier(verifier string) error {
	r.Lock()
	defer r.Unlock()
	verifiers, err := r.store.Verifiers()
	if err != nil {
		return fmt.Errorf("failed to load verifiers: %w", err)
	}
	for _, existing := range verifiers {
		if existing == verifier {
			return &DuplicateVerifierError{Verifier: verifier}
		}
	}
	if err := r.store.AddVerifier(verifier); err != nil {
		return fmt.Errorf("failed to add verifier: %w", err)
	}
	r.logger.Info(
		"added verifier",
		"component", "proof",
		"verifier", verifier,
	)
	return nil
}

// Verifiers returns the authorized verifier set
func (r *Registry) Verifiers() ([]string, error) {
	return r.store.Verifiers()
}

// RegisterCommitment creates the proof record for a newly issued
// commitment. Each commitment may be registered exactly once.
func (r *Registry) RegisterCommitment(
	commitmentID string,
	kind CommitmentKind,
) error {
	r.Lock()
	defer r.Unlock()
	return r.registerCommitment(commitmentID, kind)
}

// registerCommitment must be called with the lock held
func (r *Registry) registerCommitment(
	commitmentID string,
	kind CommitmentKind,
) error {
	_, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return fmt.Errorf("failed to load proof record: %w", err)
	}
	if ok {
		return &DuplicateCommitmentError{Commitment: commitmentID}
	}
	record := &ProofRecord{
		Commitment: commitmentID,
		Kind:       kind,
		CreatedAt:  time.Now(),
	}
	if err := r.store.AddProofRecord(record); err != nil {
		return fmt.Errorf("failed to store proof record: %w", err)
	}
	r.metrics.commitments.Inc()
	r.logger.Info(
		"registered commitment",
		"component", "proof",
		"commitment", commitmentID,
		"kind", kind,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			CommitmentRegisteredEventType,
			event.NewEvent(
				CommitmentRegisteredEventType,
				CommitmentRegisteredEvent{
					Commitment: commitmentID,
					Kind:       kind,
				},
			),
		)
	}
	return nil
}

// RemoveCommitment deletes a registered commitment that has no submitted
// proof and no verification. It exists so callers can roll back a
// registration when a dependent write fails; commitments with proof
// activity are never removed.
func (r *Registry) RemoveCommitment(commitmentID string) error {
	r.Lock()
	defer r.Unlock()
	record, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return fmt.Errorf("failed to load proof record: %w", err)
	}
	if !ok {
		return &UnknownCommitmentError{Commitment: commitmentID}
	}
	if record.Prover != "" || record.Verified {
		return fmt.Errorf(
			"commitment %s has proof activity and cannot be removed",
			commitmentID,
		)
	}
	if err := r.store.RemoveProofRecord(commitmentID); err != nil {
		return fmt.Errorf("failed to remove proof record: %w", err)
	}
	r.logger.Info(
		"removed commitment",
		"component", "proof",
		"commitment", commitmentID,
	)
	return nil
}

// SubmitProof records the claimant for a registered commitment. Submission
// does not verify anything; verification is a separate, verifier-gated
// step.
func (r *Registry) SubmitProof(
	commitmentID string,
	claimant string,
	proofBlob []byte,
) error {
	r.Lock()
	defer r.Unlock()
	record, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return fmt.Errorf("failed to load proof record: %w", err)
	}
	if !ok {
		return &UnknownCommitmentError{Commitment: commitmentID}
	}
	record.Prover = claimant
	record.ProofBlob = proofBlob
	if err := r.store.UpdateProofRecord(record); err != nil {
		return fmt.Errorf("failed to store proof record: %w", err)
	}
	r.metrics.proofs.Inc()
	r.logger.Info(
		"proof submitted",
		"component", "proof",
		"commitment", commitmentID,
		"prover", claimant,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			ProofSubmittedEventType,
			event.NewEvent(
				ProofSubmittedEventType,
				ProofSubmittedEvent{
					Commitment: commitmentID,
					Prover:     claimant,
				},
			),
		)
	}
	return nil
}

// VerifyGrade checks a revealed grade and salt against a registered grade
// commitment. The result is persisted on the proof record, overwriting any
// prior value (last check wins). A mismatch is a normal false result.
func (r *Registry) VerifyGrade(
	commitmentID string,
	claimedGrade int,
	salt string,
	caller string,
) (bool, error) {
	return r.verify(commitmentID, caller, func() (string, error) {
		return commitment.RecomputeGrade(claimedGrade, salt)
	})
}

// VerifyCertificate checks a revealed certificate payload and salt against
// a registered certificate commitment
func (r *Registry) VerifyCertificate(
	commitmentID string,
	claimedPayload any,
	salt string,
	caller string,
) (bool, error) {
	return r.verify(commitmentID, caller, func() (string, error) {
		return commitment.RecomputeCertificate(claimedPayload, salt)
	})
}

func (r *Registry) verify(
	commitmentID string,
	caller string,
	recompute func() (string, error),
) (bool, error) {
	r.Lock()
	defer r.Unlock()
	verifiers, err := r.store.Verifiers()
	if err != nil {
		return false, fmt.Errorf("failed to load verifiers: %w", err)
	}
	authorized := false
	for _, existing := range verifiers {
		if existing == caller {
			authorized = true
			break
		}
	}
	if !authorized {
		return false, &NotAuthorizedError{Caller: caller}
	}
	record, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return false, fmt.Errorf("failed to load proof record: %w", err)
	}
	if !ok {
		return false, &UnknownCommitmentError{Commitment: commitmentID}
	}
	// Malformed inputs are rejected before any state mutation
	candidate, err := recompute()
	if err != nil {
		return false, err
	}
	verified := candidate == record.Commitment
	record.Verified = verified
	if err := r.store.UpdateProofRecord(record); err != nil {
		return false, fmt.Errorf("failed to store proof record: %w", err)
	}
	result := "mismatch"
	if verified {
		result = "verified"
	}
	r.metrics.verifications.WithLabelValues(result).Inc()
	r.logger.Info(
		"verification check",
		"component", "proof",
		"commitment", commitmentID,
		"caller", caller,
		"verified", verified,
	)
	if r.eventBus != nil {
		r.eventBus.Publish(
			VerificationEventType,
			event.NewEvent(
				VerificationEventType,
				VerificationEvent{
					Commitment: commitmentID,
					Caller:     caller,
					Verified:   verified,
				},
			),
		)
	}
	return verified, nil
}

// Status returns the externally visible state of a commitment. Unknown
// commitments report Exists false rather than an error.
func (r *Registry) Status(commitmentID string) (Status, error) {
	record, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return Status{}, fmt.Errorf("failed to load proof record: %w", err)
	}
	if !ok {
		return Status{}, nil
	}
	return Status{
		Exists:    true,
		Verified:  record.Verified,
		Prover:    record.Prover,
		CreatedAt: record.CreatedAt,
	}, nil
}

// Record returns the full proof record for a commitment
func (r *Registry) Record(commitmentID string) (*ProofRecord, error) {
	record, ok, err := r.store.ProofRecord(commitmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proof record: %w", err)
	}
	if !ok {
		return nil, &UnknownCommitmentError{Commitment: commitmentID}
	}
	return record, nil
}

// Commitments returns all registered commitments in issuance order
func (r *Registry) Commitments() ([]string, error) {
	return r.store.Commitments()
}
