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

// AddVerifier adds a new verifier to the verifier set
func (d *MetadataStoreSqlite) AddVerifier(
	address string,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(&models.Verifier{Address: address})
	if result.Error != nil {
		return fmt.Errorf("create verifier: %w", result.Error)
	}
	return nil
}

// GetVerifiers returns all verifiers in insertion order
func (d *MetadataStoreSqlite) GetVerifiers(
	txn *gorm.DB,
) ([]string, error) {
	db := d.resolveDB(txn)
	var tmpVerifiers []models.Verifier
	result := db.Order("id").Find(&tmpVerifiers)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]string, 0, len(tmpVerifiers))
	for _, verifier := range tmpVerifiers {
		ret = append(ret, verifier.Address)
	}
	return ret, nil
}

// AddProofRecord adds a new proof record to the database
func (d *MetadataStoreSqlite) AddProofRecord(
	record *models.ProofRecord,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(record)
	if result.Error != nil {
		return fmt.Errorf("create proof record: %w", result.Error)
	}
	return nil
}

// UpdateProofRecord updates an existing proof record identified by its
// commitment
func (d *MetadataStoreSqlite) UpdateProofRecord(
	record *models.ProofRecord,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Model(&models.ProofRecord{}).
		Where("commitment = ?", record.Commitment).
		Updates(map[string]any{
			"prover":     record.Prover,
			"proof_blob": record.ProofBlob,
			"verified":   record.Verified,
		})
	if result.Error != nil {
		return fmt.Errorf("update proof record: %w", result.Error)
	}
	return nil
}

// DeleteProofRecord removes a proof record identified by its commitment
func (d *MetadataStoreSqlite) DeleteProofRecord(
	commitment string,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Where("commitment = ?", commitment).
		Delete(&models.ProofRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete proof record: %w", result.Error)
	}
	return nil
}

// GetProofRecord returns a proof record by its commitment, or nil when not
// found
func (d *MetadataStoreSqlite) GetProofRecord(
	commitment string,
	txn *gorm.DB,
) (*models.ProofRecord, error) {
	db := d.resolveDB(txn)
	ret := &models.ProofRecord{}
	result := db.First(ret, "commitment = ?", commitment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetProofRecords returns all proof records in registration order
func (d *MetadataStoreSqlite) GetProofRecords(
	txn *gorm.DB,
) ([]models.ProofRecord, error) {
	db := d.resolveDB(txn)
	var ret []models.ProofRecord
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
