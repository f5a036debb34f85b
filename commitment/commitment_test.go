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

package commitment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSalt = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestGenerateSalt(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(salt, "0x"))
	assert.Len(t, salt, 2+2*SaltLength)
	// Salts must not repeat
	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2)
}

func TestCommitGradeDeterminism(t *testing.T) {
	c1, err := CommitGrade(85, testSalt)
	require.NoError(t, err)
	c2, err := CommitGrade(85, testSalt)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.True(t, strings.HasPrefix(c1, "0x"))
	assert.Len(t, c1, 66)
}

func TestCommitGradeSensitivity(t *testing.T) {
	// Every grade in the domain must commit to a distinct value for a
	// fixed salt
	seen := make(map[string]int)
	for grade := MinGrade; grade <= MaxGrade; grade++ {
		c, err := CommitGrade(grade, testSalt)
		require.NoError(t, err)
		if prev, ok := seen[c]; ok {
			t.Fatalf("grades %d and %d collide on %s", prev, grade, c)
		}
		seen[c] = grade
	}
}

func TestCommitGradeSaltSensitivity(t *testing.T) {
	c1, err := CommitGrade(85, testSalt)
	require.NoError(t, err)
	otherSalt, err := GenerateSalt()
	require.NoError(t, err)
	c2, err := CommitGrade(85, otherSalt)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2)
}

func TestCommitGradeRange(t *testing.T) {
	testDefs := []int{-1, 101, 1000}
	for _, grade := range testDefs {
		_, err := CommitGrade(grade, testSalt)
		var valueErr *InvalidValueError
		require.ErrorAs(t, err, &valueErr)
		assert.Equal(t, grade, valueErr.Value)
	}
	// Boundary values are accepted
	_, err := CommitGrade(MinGrade, testSalt)
	assert.NoError(t, err)
	_, err = CommitGrade(MaxGrade, testSalt)
	assert.NoError(t, err)
}

func TestCommitGradeInvalidSalt(t *testing.T) {
	testDefs := []struct {
		name string
		salt string
	}{
		{"missing prefix", "4f3edf983ac636a65a842ce7c78d9aa7"},
		{"not hex", "0xzzzz"},
		{"too short", "0x4f3edf98"},
		{"empty", ""},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := CommitGrade(85, testDef.salt)
			var saltErr *InvalidSaltError
			assert.ErrorAs(t, err, &saltErr)
		})
	}
}

func TestCommitCertificate(t *testing.T) {
	payload := map[string]any{
		"type":    "Bachelor",
		"student": "SV2025001",
	}
	c1, err := CommitCertificate(payload, testSalt)
	require.NoError(t, err)
	c2, err := CommitCertificate(payload, testSalt)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	// Different payload yields different commitment
	other := map[string]any{
		"type":    "Master",
		"student": "SV2025001",
	}
	c3, err := CommitCertificate(other, testSalt)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c3)
}

func TestRecomputeMatchesCommit(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	committed, err := CommitGrade(92, salt)
	require.NoError(t, err)
	candidate, err := RecomputeGrade(92, salt)
	require.NoError(t, err)
	assert.Equal(t, committed, candidate)
	wrong, err := RecomputeGrade(93, salt)
	require.NoError(t, err)
	assert.NotEqual(t, committed, wrong)
}
