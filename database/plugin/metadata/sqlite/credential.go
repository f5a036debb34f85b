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
	"fmt"

	"github.com/edulabs-io/educhain/database/models"
	"gorm.io/gorm"
)

// AddGradeRecord adds a new grade record to the database
func (d *MetadataStoreSqlite) AddGradeRecord(
	record *models.GradeRecord,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(record)
	if result.Error != nil {
		return fmt.Errorf("create grade record: %w", result.Error)
	}
	return nil
}

// GetGradeRecords returns all grade records in binding order
func (d *MetadataStoreSqlite) GetGradeRecords(
	txn *gorm.DB,
) ([]models.GradeRecord, error) {
	db := d.resolveDB(txn)
	var ret []models.GradeRecord
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddCertificate adds a new certificate to the database
func (d *MetadataStoreSqlite) AddCertificate(
	cert *models.Certificate,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	result := db.Create(cert)
	if result.Error != nil {
		return fmt.Errorf("create certificate: %w", result.Error)
	}
	return nil
}

// GetCertificates returns all certificates in binding order
func (d *MetadataStoreSqlite) GetCertificates(
	txn *gorm.DB,
) ([]models.Certificate, error) {
	db := d.resolveDB(txn)
	var ret []models.Certificate
	result := db.Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
