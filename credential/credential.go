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

// Package credential binds commitments to domain records. Each
// commitment may back at most one grade record or certificate; the proof
// registry acts as the uniqueness gate, so binding and commitment
// registration succeed or fail together from the caller's perspective.
package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edulabs-io/educhain/commitment"
	"github.com/edulabs-io/educhain/event"
	"github.com/edulabs-io/educhain/proof"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RecordBoundEventType      event.EventType = "credential.record_bound"
	CertificateBoundEventType event.EventType = "credential.certificate_bound"
)

type RecordBoundEvent struct {
	RecordID   string
	Student    string
	Commitment string
}

type CertificateBoundEvent struct {
	CertID     string
	Student    string
	Commitment string
}

// GradeRecord is a grade entry backed by a commitment
type GradeRecord struct {
	ID         string
	Student    string
	Subject    string
	Semester   string
	Grade      int
	Commitment string
	TxHash     string
	CreatedAt  time.Time
}

// Certificate is an issued certificate backed by a commitment
type Certificate struct {
	ID         string
	Student    string
	CertType   string
	IssuedAt   time.Time
	Commitment string
	TxHash     string
	CreatedAt  time.Time
}

type ServiceConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Store        Store
	Registry     *proof.Registry
}

// Service ties commitments to credential records
type Service struct {
	config  ServiceConfig
	metrics struct {
		records      prometheus.Counter
		certificates prometheus.Counter
	}
	store       Store
	registry    *proof.Registry
	logger      *slog.Logger
	eventBus    *event.EventBus
	recCounter  uint64
	certCounter uint64
	sync.Mutex
}

func NewService(config ServiceConfig) (*Service, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("proof registry is required")
	}
	s := &Service{
		config:   config,
		store:    config.Store,
		registry: config.Registry,
		eventBus: config.EventBus,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		s.logger = config.Logger
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}
	// Resume counters from existing store state
	records, err := s.store.GradeRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load grade records: %w", err)
	}
	s.recCounter = uint64(len(records))
	certs, err := s.store.Certificates()
	if err != nil {
		return nil, fmt.Errorf("failed to load certificates: %w", err)
	}
	s.certCounter = uint64(len(certs))
	// Init metrics
	promautoFactory := promauto.With(config.PromRegistry)
	s.metrics.records = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_credential_grade_records_total",
			Help: "total grade records bound to commitments",
		},
	)
	s.metrics.certificates = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "educhain_credential_certificates_total",
			Help: "total certificates bound to commitments",
		},
	)
	return s, nil
}

// mockTxHash generates the placeholder ledger hash recorded on each bound
// credential
func mockTxHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate tx hash: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// BindGradeCommitment creates a grade record bound to the given
// commitment and registers the commitment in the proof registry. Both
// succeed or neither is visible; a reused commitment fails with
// proof.DuplicateCommitmentError before any record is created.
func (s *Service) BindGradeCommitment(
	student string,
	subject string,
	semester string,
	grade int,
	commitmentID string,
) (*GradeRecord, error) {
	if grade < commitment.MinGrade || grade > commitment.MaxGrade {
		return nil, &commitment.InvalidValueError{Value: grade}
	}
	s.Lock()
	defer s.Unlock()
	txHash, err := mockTxHash()
	if err != nil {
		return nil, err
	}
	// The registry enforces commitment uniqueness across all records
	if err := s.registry.RegisterCommitment(
		commitmentID,
		proof.KindGrade,
	); err != nil {
		return nil, err
	}
	s.recCounter++
	record := &GradeRecord{
		ID:         fmt.Sprintf("rec_%d", s.recCounter),
		Student:    student,
		Subject:    subject,
		Semester:   semester,
		Grade:      grade,
		Commitment: commitmentID,
		TxHash:     txHash,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AddGradeRecord(record); err != nil {
		// Roll back the registration so the commitment stays usable on
		// retry
		s.recCounter--
		if rbErr := s.registry.RemoveCommitment(commitmentID); rbErr != nil {
			s.logger.Error(
				"failed to roll back commitment registration",
				"component", "credential",
				"commitment", commitmentID,
				"error", rbErr,
			)
		}
		return nil, fmt.Errorf("failed to store grade record: %w", err)
	}
	s.metrics.records.Inc()
	s.logger.Info(
		"bound grade commitment",
		"component", "credential",
		"record_id", record.ID,
		"student", student,
		"commitment", commitmentID,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(
			RecordBoundEventType,
			event.NewEvent(
				RecordBoundEventType,
				RecordBoundEvent{
					RecordID:   record.ID,
					Student:    student,
					Commitment: commitmentID,
				},
			),
		)
	}
	return record, nil
}

// BindCertificateCommitment creates a certificate bound to the given
// commitment, symmetric to BindGradeCommitment
func (s *Service) BindCertificateCommitment(
	student string,
	certType string,
	issuedAt time.Time,
	commitmentID string,
) (*Certificate, error) {
	s.Lock()
	defer s.Unlock()
	txHash, err := mockTxHash()
	if err != nil {
		return nil, err
	}
	if err := s.registry.RegisterCommitment(
		commitmentID,
		proof.KindCertificate,
	); err != nil {
		return nil, err
	}
	s.certCounter++
	cert := &Certificate{
		ID:         fmt.Sprintf("cert_%d", s.certCounter),
		Student:    student,
		CertType:   certType,
		IssuedAt:   issuedAt,
		Commitment: commitmentID,
		TxHash:     txHash,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AddCertificate(cert); err != nil {
		// Roll back the registration so the commitment stays usable on
		// retry
		s.certCounter--
		if rbErr := s.registry.RemoveCommitment(commitmentID); rbErr != nil {
			s.logger.Error(
				"failed to roll back commitment registration",
				"component", "credential",
				"commitment", commitmentID,
				"error", rbErr,
			)
		}
		return nil, fmt.Errorf("failed to store certificate: %w", err)
	}
	s.metrics.certificates.Inc()
	s.logger.Info(
		"bound certificate commitment",
		"component", "credential",
		"cert_id", cert.ID,
		"student", student,
		"commitment", commitmentID,
	)
	if s.eventBus != nil {
		s.eventBus.Publish(
			CertificateBoundEventType,
			event.NewEvent(
				CertificateBoundEventType,
				CertificateBoundEvent{
					CertID:     cert.ID,
					Student:    student,
					Commitment: commitmentID,
				},
			),
		)
	}
	return cert, nil
}

// GradeRecords returns all grade records in binding order
func (s *Service) GradeRecords() ([]*GradeRecord, error) {
	return s.store.GradeRecords()
}

// Certificates returns all certificates in binding order
func (s *Service) Certificates() ([]*Certificate, error) {
	return s.store.Certificates()
}

// Counts returns the number of bound grade records and certificates
func (s *Service) Counts() (int, int, error) {
	records, err := s.store.GradeRecords()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load grade records: %w", err)
	}
	certs, err := s.store.Certificates()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load certificates: %w", err)
	}
	return len(records), len(certs), nil
}
