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

package metadata

import (
	"fmt"

	"github.com/edulabs-io/educhain/database/models"
	"github.com/edulabs-io/educhain/database/plugin"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Transaction() *gorm.DB

	// Approval engine
	AddSigner(string, *gorm.DB) error
	GetSigners(*gorm.DB) ([]string, error)
	AddTransaction(*models.Transaction, *gorm.DB) error
	UpdateTransaction(*models.Transaction, *gorm.DB) error
	GetTransaction(string, *gorm.DB) (*models.Transaction, error)
	GetTransactions(*gorm.DB) ([]models.Transaction, error)

	// Proof registry
	AddVerifier(string, *gorm.DB) error
	GetVerifiers(*gorm.DB) ([]string, error)
	AddProofRecord(*models.ProofRecord, *gorm.DB) error
	UpdateProofRecord(*models.ProofRecord, *gorm.DB) error
	DeleteProofRecord(string, *gorm.DB) error
	GetProofRecord(string, *gorm.DB) (*models.ProofRecord, error)
	GetProofRecords(*gorm.DB) ([]models.ProofRecord, error)

	// Credentials
	AddGradeRecord(*models.GradeRecord, *gorm.DB) error
	GetGradeRecords(*gorm.DB) ([]models.GradeRecord, error)
	AddCertificate(*models.Certificate, *gorm.DB) error
	GetCertificates(*gorm.DB) ([]models.Certificate, error)
}

// New returns the started metadata plugin selected by name, with the given
// data directory applied
func New(pluginName string, dataDir string) (MetadataStore, error) {
	// Apply the data directory before the plugin is instantiated
	if err := plugin.SetPluginOption(
		plugin.PluginTypeMetadata,
		pluginName,
		"data-dir",
		dataDir,
	); err != nil {
		return nil, err
	}

	// Get and start the plugin
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}

	// Type assert to MetadataStore interface
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}

	return metadataStore, nil
}
