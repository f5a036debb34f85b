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

// Transaction represents a proposed multi-signature transaction. Payload and
// Signatures are stored as JSON blobs; PayloadKind selects the concrete
// payload type on decode.
type Transaction struct {
	ExecutedAt  *time.Time
	TxID        string `gorm:"size:64;uniqueIndex;not null"`
	Description string
	PayloadKind string `gorm:"size:32"`
	Status      string `gorm:"size:16;index"`
	CreatedBy   string `gorm:"size:64"`
	Payload     []byte
	Signatures  []byte
	CreatedAt   time.Time
	ID          uint `gorm:"primaryKey"`
}

func (Transaction) TableName() string {
	return "transaction"
}

// Signer is a member of the approval signer set
type Signer struct {
	Address   string `gorm:"size:64;uniqueIndex;not null"`
	CreatedAt time.Time
	ID        uint `gorm:"primaryKey"`
}

func (Signer) TableName() string {
	return "signer"
}
