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

package models

import "time"

// ProofRecord tracks a registered commitment and its verification state
type ProofRecord struct {
	Commitment string `gorm:"size:66;uniqueIndex;not null"`
	Kind       string `gorm:"size:16"`
	Prover     string `gorm:"size:64"`
	ProofBlob  []byte
	CreatedAt  time.Time
	ID         uint `gorm:"primaryKey"`
	Verified   bool
}

func (ProofRecord) TableName() string {
	return "proof_record"
}

// Verifier is a member of the proof verifier set
type Verifier struct {
	Address   string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time
	ID        uint `gorm:"primaryKey"`
}

func (Verifier) TableName() string {
	return "verifier"
}
