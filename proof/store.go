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

package proof

import (
	"sync"
)

// Store is the persistence interface for the proof registry. The registry
// serializes all mutations behind its own lock, so implementations only
// need to provide consistent get/put/list semantics. Implementations must
// return copies that callers may retain. The commitment list is
// append-only and returned in issuance order; RemoveProofRecord exists
// only to roll back a registration whose dependent write failed.
type Store interface {
	AddVerifier(verifier string) error
	Verifiers() ([]string, error)
	AddProofRecord(record *ProofRecord) error
	UpdateProofRecord(record *ProofRecord) error
	RemoveProofRecord(commitment string) error
	ProofRecord(commitment string) (*ProofRecord, bool, error)
	Commitments() ([]string, error)
	Close() error
}

// MemoryStore is the default in-memory Store. State lives for the process
// lifetime only.
type MemoryStore struct {
	verifiers []string
	records   map[string]*ProofRecord
	order     []string
	mutex     sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*ProofRecord),
	}
}

func (s *MemoryStore) AddVerifier(verifier string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.verifiers = append(s.verifiers, verifier)
	return nil
}

func (s *MemoryStore) Verifiers() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := make([]string, len(s.verifiers))
	copy(ret, s.verifiers)
	return ret, nil
}

func (s *MemoryStore) AddProofRecord(record *ProofRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records[record.Commitment] = record.clone()
	s.order = append(s.order, record.Commitment)
	return nil
}

func (s *MemoryStore) UpdateProofRecord(record *ProofRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.records[record.Commitment]; !ok {
		return &UnknownCommitmentError{Commitment: record.Commitment}
	}
	s.records[record.Commitment] = record.clone()
	return nil
}

func (s *MemoryStore) RemoveProofRecord(commitment string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.records[commitment]; !ok {
		return nil
	}
	delete(s.records, commitment)
	for i, existing := range s.order {
		if existing == commitment {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ProofRecord(
	commitment string,
) (*ProofRecord, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	record, ok := s.records[commitment]
	if !ok {
		return nil, false, nil
	}
	return record.clone(), true, nil
}

func (s *MemoryStore) Commitments() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := make([]string, len(s.order))
	copy(ret, s.order)
	return ret, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
