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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND,
// either express or implied. See the License for the specific language
// governing permissions and limitations under the License.

package sqlite

import (
	"errors"
	"fmt"

	"github.com/edulabs-io/educhain/database/models"
	"gorm.io/gorm"
)

// AddSigner adds a new signer to the signer set
func (d *MetadataStoreSqlite) AddSigner(
	address string,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(&models.Signer{Address: address})
	if result.Error != nil {
		return fmt.Errorf("create signer: %w", result.Error)
	}
	return nil
}

// GetSigners returns all signers in insertion order
func (d *MetadataStoreSqlite) GetSigners(
	txn *gorm.DB,
) ([]string, error) {
	db := d.resolveDB(txn)
	var tmpSigners []models.Signer
	result := db.Order("id").Find(&tmpSigners)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]string, 0, len(tmpSigners))
	for _, signer := range tmpSigners {
		ret = append(ret, signer.Address)
	}
	return ret, nil
}

// AddTransaction adds a new transaction to the database
func (d *MetadataStoreSqlite) AddTransaction(
	tx *models.Transaction,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(tx)
	if result.Error != nil {
		return fmt.Errorf("create transaction: %w", result.Error)
	}
	return nil
}

// UpdateTransaction updates an existing transaction identified by its
// transaction ID
func (d *MetadataStoreSqlite) UpdateTransaction(
	tx *models.Transaction,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Model(&models.Transaction{}).
		Where("tx_id = ?", tx.TxID).
		Updates(map[string]any{
			"status":      tx.Status,
			"signatures":  tx.Signatures,
			"executed_at": tx.ExecutedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update transaction: %w", result.Error)
	}
	return nil
}

// GetTransaction returns a transaction by its transaction ID, or nil when
// not found
func (d *MetadataStoreSqlite) GetTransaction(
	txId string,
	txn *gorm.DB,
) (*models.Transaction, error) {
	db := d.resolveDB(txn)
	ret := &models.Transaction{}
	result := db.First(ret, "tx_id = ?", txId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetTransactions returns all transactions in creation order
func (d *MetadataStoreSqlite) GetTransactions(
	txn *gorm.DB,
) ([]models.Transaction, error) {
	db := d.resolveDB(txn)
	var ret []models.Transaction
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
