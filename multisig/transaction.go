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

package multisig

import (
	"fmt"
	"time"
)

// TransactionStatus is the lifecycle state of a multi-party transaction.
// Valid transitions are pending -> approved -> executed, with
// pending/approved -> cancelled as the only other moves. Nothing leaves
// executed or cancelled.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusExecuted  TransactionStatus = "executed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Payload is the action carried by a transaction. The engine itself is
// payload-agnostic; callers pick one of the concrete proposal kinds.
type Payload interface {
	PayloadKind() string
}

// RecordProposal proposes adding a grade record for a student
type RecordProposal struct {
	Student  string
	Subject  string
	Semester string
	Grade    int
}

func (RecordProposal) PayloadKind() string { return "record" }

// CertificateProposal proposes issuing a certificate to a student
type CertificateProposal struct {
	Student  string
	CertType string
	IssuedAt time.Time
	Metadata map[string]string
}

func (CertificateProposal) PayloadKind() string { return "certificate" }

// CustomProposal carries an arbitrary named action
type CustomProposal struct {
	Action  string
	Details map[string]any
}

func (CustomProposal) PayloadKind() string { return "custom" }

// Signature records a single signer approval on a transaction
type Signature struct {
	Signer   string
	SignedAt time.Time
	Token    string
}

// Transaction is a threshold-gated pending action
type Transaction struct {
	ID          string
	Description string
	Payload     Payload
	Signatures  []Signature
	Status      TransactionStatus
	CreatedBy   string
	CreatedAt   time.Time
	ExecutedAt  *time.Time
}

// clone returns a deep copy safe to hand to callers
func (t *Transaction) clone() *Transaction {
	ret := *t
	ret.Signatures = make([]Signature, len(t.Signatures))
	copy(ret.Signatures, t.Signatures)
	if t.ExecutedAt != nil {
		executedAt := *t.ExecutedAt
		ret.ExecutedAt = &executedAt
	}
	return &ret
}

// signedBy reports whether the given signer already signed
func (t *Transaction) signedBy(signer string) bool {
	for _, sig := range t.Signatures {
		if sig.Signer == signer {
			return true
		}
	}
	return false
}

// TransactionDetail is a read-only view of a transaction with signature
// progress attached
type TransactionDetail struct {
	Transaction
	SignaturesCount    int
	SignaturesRequired int
	CanExecute         bool
}

// Stats summarizes engine state, counted by transaction status
type Stats struct {
	TotalSigners          int
	RequiredSignatures    int
	TotalTransactions     int
	PendingTransactions   int
	ApprovedTransactions  int
	ExecutedTransactions  int
	CancelledTransactions int
}

// TransactionNotFoundError is returned when a referenced transaction does
// not exist
type TransactionNotFoundError struct {
	ID string
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.ID)
}

// InvalidStateError is returned when an operation is attempted against a
// transaction in a state that forbids it
type InvalidStateError struct {
	ID     string
	Status TransactionStatus
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf(
		"cannot %s transaction %s in state %s",
		e.Op,
		e.ID,
		e.Status,
	)
}

// DuplicateSignerError is returned when adding a signer that already
// exists in the signer set
type DuplicateSignerError struct {
	Signer string
}

func (e *DuplicateSignerError) Error() string {
	return fmt.Sprintf("signer %s already exists", e.Signer)
}

// NotAuthorizedError is returned when the caller is not in the signer set
type NotAuthorizedError struct {
	Signer string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("signer %s not authorized", e.Signer)
}

// AlreadySignedError is returned when a signer approves the same
// transaction twice
type AlreadySignedError struct {
	ID     string
	Signer string
}

func (e *AlreadySignedError) Error() string {
	return fmt.Sprintf(
		"transaction %s already signed by %s",
		e.ID,
		e.Signer,
	)
}
