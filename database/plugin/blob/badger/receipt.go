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

package badger

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	receiptBlobKeyPrefix = "receipt_"
)

// ErrReceiptNotFound is returned when no receipt exists for a transaction ID
var ErrReceiptNotFound = errors.New("receipt not found")

// GetReceipt retrieves the ledger receipt for a transaction ID
func (b *BlobStoreBadger) GetReceipt(txID string) ([]byte, error) {
	txn := b.NewTransaction(false)
	defer txn.Discard()

	val, err := b.Get(txn, []byte(receiptBlobKeyPrefix+txID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return val, nil
}

// SetReceipt stores the ledger receipt for a transaction ID within a
// transaction
func (b *BlobStoreBadger) SetReceipt(
	txn *badger.Txn,
	txID string,
	receipt []byte,
) error {
	return b.Set(txn, []byte(receiptBlobKeyPrefix+txID), receipt)
}

// GetReceiptIDs returns the transaction IDs of all stored receipts
func (b *BlobStoreBadger) GetReceiptIDs() ([]string, error) {
	txn := b.NewTransaction(false)
	defer txn.Discard()

	prefix := []byte(receiptBlobKeyPrefix)
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iterOpts.PrefetchValues = false
	iter := txn.NewIterator(iterOpts)
	defer iter.Close()

	var ret []string
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		ret = append(ret, string(key[len(prefix):]))
	}
	return ret, nil
}
