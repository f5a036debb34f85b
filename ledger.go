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

package educhain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/edulabs-io/educhain/multisig"
)

// LedgerSubmitter dispatches executed transactions to a ledger and returns
// an opaque receipt
type LedgerSubmitter interface {
	Submit(ctx context.Context, tx *multisig.Transaction) ([]byte, error)
}

// LedgerReceipt is the receipt produced by the built-in mock ledger
type LedgerReceipt struct {
	TxID        string    `json:"txId"`
	TxHash      string    `json:"txHash"`
	BlockNumber uint64    `json:"blockNumber"`
	Status      int       `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// MockLedger is the default LedgerSubmitter. It fabricates receipts locally
// instead of talking to a real chain.
type MockLedger struct {
	mutex       sync.Mutex
	blockNumber uint64
}

func NewMockLedger() *MockLedger {
	return &MockLedger{}
}

func (m *MockLedger) Submit(
	ctx context.Context,
	tx *multisig.Transaction,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hashBuf := make([]byte, 32)
	if _, err := rand.Read(hashBuf); err != nil {
		return nil, fmt.Errorf("failed to generate tx hash: %w", err)
	}
	m.mutex.Lock()
	m.blockNumber++
	receipt := LedgerReceipt{
		TxID:        tx.ID,
		TxHash:      "0x" + hex.EncodeToString(hashBuf),
		BlockNumber: m.blockNumber,
		Status:      1,
		Timestamp:   time.Now(),
	}
	m.mutex.Unlock()
	return json.Marshal(receipt)
}
