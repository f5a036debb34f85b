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

package credential

import (
	"sync"
)

// Store is the persistence interface for bound credentials. Records and
// certificates are append-only.
type Store interface {
	AddGradeRecord(record *GradeRecord) error
	AddCertificate(cert *Certificate) error
	GradeRecords() ([]*GradeRecord, error)
	Certificates() ([]*Certificate, error)
	Close() error
}

// MemoryStore is an in-memory Store used when no persistent store is
// configured
type MemoryStore struct {
	mutex   sync.RWMutex
	records []*GradeRecord
	certs   []*Certificate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AddGradeRecord(record *GradeRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	tmpRecord := *record
	m.records = append(m.records, &tmpRecord)
	return nil
}

func (m *MemoryStore) AddCertificate(cert *Certificate) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	tmpCert := *cert
	m.certs = append(m.certs, &tmpCert)
	return nil
}

func (m *MemoryStore) GradeRecords() ([]*GradeRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ret := make([]*GradeRecord, 0, len(m.records))
	for _, record := range m.records {
		tmpRecord := *record
		ret = append(ret, &tmpRecord)
	}
	return ret, nil
}

func (m *MemoryStore) Certificates() ([]*Certificate, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	ret := make([]*Certificate, 0, len(m.certs))
	for _, cert := range m.certs {
		tmpCert := *cert
		ret = append(ret, &tmpCert)
	}
	return ret, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
