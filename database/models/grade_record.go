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

// GradeRecord is a grade entry bound to a commitment
type GradeRecord struct {
	RecordID   string `gorm:"size:64;uniqueIndex;not null"`
	Student    string `gorm:"size:128;index"`
	Subject    string `gorm:"size:128"`
	Semester   string `gorm:"size:32"`
	Commitment string `gorm:"size:66;uniqueIndex;not null"`
	TxHash     string `gorm:"size:66"`
	CreatedAt  time.Time
	ID         uint `gorm:"primaryKey"`
	Grade      int
}

func (GradeRecord) TableName() string {
	return "grade_record"
}
