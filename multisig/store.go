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
	"sync"
)

// TransactionStore is the persistence interface for the approval engine.
// The engine serializes all mutations behind its own lock, so
// implementations only need to provide consistent get/put/list semantics.
// Implementations must return copies that callers may retain.
type TransactionStore interface {
	AddSigner(signer string) error
	Signers() ([]string, error)
	AddTransaction(tx *Transaction) error
	UpdateTransaction(tx *Transaction) error
	Transaction(id string) (*Transaction, bool, error)
	Transactions() ([]*Transaction, error)
	Close() error
}

// MemoryStore is the default in-memory TransactionStore. State lives for
// the process lifetime only.
type MemoryStore struct {
	signers      []string
	transactions map[string]*Transaction
	txOrder      []string
	mutex        sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]*Transaction),
	}
}

func (s *MemoryStore) AddSigner(signer string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.signers = append(s.signers, signer)
	return nil
}

func (s *MemoryStore) Signers() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := make([]string, len(s.signers))
	copy(ret, s.signers)
	return ret, nil
}

func (s *MemoryStore) AddTransaction(tx *Transaction) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.transactions[tx.ID] = tx.clone()
	s.txOrder = append(s.txOrder, tx.ID)
	return nil
}

func (s *MemoryStore) UpdateTransaction(tx *Transaction) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return &TransactionNotFoundError{ID: tx.ID}
	}
	s.transactions[tx.ID] = tx.clone()
	return nil
}

func (s *MemoryStore) Transaction(id string) (*Transaction, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, false, nil
	}
	return tx.clone(), true, nil
}

func (s *MemoryStore) Transactions() ([]*Transaction, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ret := make([]*Transaction, 0, len(s.txOrder))
	for _, id := range s.txOrder {
		ret = append(ret, s.transactions[id].clone())
	}
	return ret, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
