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

package proof

import (
	"io"
	"log/slog"
	"testing"

	"github.com/edulabs-io/educhain/commitment"
	"github.com/edulabs-io/educhain/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVerifier = "0x2546BcD3c84621e976D8185a91A922aE77ECEc30"
	testClaimant = "0x8ba1f109551bD432803012645Ac136ddd64DBa72"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(RegistryConfig{
		Logger:       slog.New(slog.NewJSONHandler(io.Discard, nil)),
		EventBus:     event.NewEventBus(nil, nil),
		PromRegistry: prometheus.NewRegistry(),
		Verifiers:    []string{testVerifier},
	})
	require.NoError(t, err)
	return r
}

// commitTestGrade issues and registers a grade commitment
func commitTestGrade(t *testing.T, r *Registry, grade int) (string, string) {
	t.Helper()
	salt, err := commitment.GenerateSalt()
	require.NoError(t, err)
	c, err := commitment.CommitGrade(grade, salt)
	require.NoError(t, err)
	require.NoError(t, r.RegisterCommitment(c, KindGrade))
	return c, salt
}

func TestRegisterCommitmentDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := commitTestGrade(t, r, 85)
	err := r.RegisterCommitment(c, KindGrade)
	var dupErr *DuplicateCommitmentError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, c, dupErr.Commitment)
	// First registration remains intact
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.True(t, status.Exists)
}

func TestRemoveCommitment(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := commitTestGrade(t, r, 85)
	require.NoError(t, r.RemoveCommitment(c))
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.False(t, status.Exists)
	commitments, err := r.Commitments()
	require.NoError(t, err)
	assert.Empty(t, commitments)
	// The commitment may be registered again after removal
	require.NoError(t, r.RegisterCommitment(c, KindGrade))
}

func TestRemoveCommitmentUnknown(t *testing.T) {
	r := newTestRegistry(t)
	err := r.RemoveCommitment("0xmissing")
	var unkErr *UnknownCommitmentError
	require.ErrorAs(t, err, &unkErr)
}

func TestRemoveCommitmentWithProofActivity(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := commitTestGrade(t, r, 85)
	require.NoError(t, r.SubmitProof(c, testClaimant, []byte("proof")))
	// Commitments with a submitted proof are append-only
	require.Error(t, r.RemoveCommitment(c))
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.True(t, status.Exists)
}

func TestSubmitProof(t *testing.T) {
	r := newTestRegistry(t)
	c, _ := commitTestGrade(t, r, 85)
	require.NoError(t, r.SubmitProof(c, testClaimant, []byte("proof")))
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.Equal(t, testClaimant, status.Prover)
	// Submission alone never verifies
	assert.False(t, status.Verified)
}

func TestSubmitProofUnknownCommitment(t *testing.T) {
	r := newTestRegistry(t)
	err := r.SubmitProof("0xabcdef", testClaimant, nil)
	var unknownErr *UnknownCommitmentError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestVerifyRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	c, salt := commitTestGrade(t, r, 85)

	// Wrong grade: normal mismatch, not an error
	verified, err := r.VerifyGrade(c, 80, salt, testVerifier)
	require.NoError(t, err)
	assert.False(t, verified)
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.False(t, status.Verified)

	// Correct grade flips the record to verified (last check wins)
	verified, err = r.VerifyGrade(c, 85, salt, testVerifier)
	require.NoError(t, err)
	assert.True(t, verified)
	status, err = r.Status(c)
	require.NoError(t, err)
	assert.True(t, status.Verified)

	// Off-by-one still mismatches and overwrites the verified flag
	verified, err = r.VerifyGrade(c, 86, salt, testVerifier)
	require.NoError(t, err)
	assert.False(t, verified)
	status, err = r.Status(c)
	require.NoError(t, err)
	assert.False(t, status.Verified)
}

func TestVerifyUnauthorized(t *testing.T) {
	r := newTestRegistry(t)
	c, salt := commitTestGrade(t, r, 85)
	_, err := r.VerifyGrade(c, 85, salt, testClaimant)
	var authErr *NotAuthorizedError
	require.ErrorAs(t, err, &authErr)
	// Failed authorization does not mutate the record
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.False(t, status.Verified)
}

func TestVerifyUnknownCommitment(t *testing.T) {
	r := newTestRegistry(t)
	salt, err := commitment.GenerateSalt()
	require.NoError(t, err)
	_, err = r.VerifyGrade("0xabcdef", 85, salt, testVerifier)
	var unknownErr *UnknownCommitmentError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestVerifyInvalidSaltRejectedBeforeMutation(t *testing.T) {
	r := newTestRegistry(t)
	c, salt := commitTestGrade(t, r, 85)
	verified, err := r.VerifyGrade(c, 85, salt, testVerifier)
	require.NoError(t, err)
	require.True(t, verified)

	// A malformed salt errors out without touching the verified flag
	_, err = r.VerifyGrade(c, 85, "not-a-salt", testVerifier)
	var saltErr *commitment.InvalidSaltError
	require.ErrorAs(t, err, &saltErr)
	status, err := r.Status(c)
	require.NoError(t, err)
	assert.True(t, status.Verified)
}

func TestVerifyCertificate(t *testing.T) {
	r := newTestRegistry(t)
	payload := map[string]any{
		"type":    "Bachelor",
		"student": "SV2025001",
	}
	salt, err := commitment.GenerateSalt()
	require.NoError(t, err)
	c, err := commitment.CommitCertificate(payload, salt)
	require.NoError(t, err)
	require.NoError(t, r.RegisterCommitment(c, KindCertificate))

	verified, err := r.VerifyCertificate(c, payload, salt, testVerifier)
	require.NoError(t, err)
	assert.True(t, verified)

	other := map[string]any{
		"type":    "Master",
		"student": "SV2025001",
	}
	verified, err = r.VerifyCertificate(c, other, salt, testVerifier)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestStatusUnknown(t *testing.T) {
	r := newTestRegistry(t)
	status, err := r.Status("0xabcdef")
	require.NoError(t, err)
	assert.False(t, status.Exists)
	assert.False(t, status.Verified)
	assert.Empty(t, status.Prover)
}

func TestCommitmentsOrder(t *testing.T) {
	r := newTestRegistry(t)
	c1, _ := commitTestGrade(t, r, 70)
	c2, _ := commitTestGrade(t, r, 80)
	c3, _ := commitTestGrade(t, r, 90)
	commitments, err := r.Commitments()
	require.NoError(t, err)
	assert.Equal(t, []string{c1, c2, c3}, commitments)
}

func TestAddVerifierDuplicate(t *testing.T) {
	r := newTestRegistry(t)
	err := r.AddVerifier(testVerifier)
	var dupErr *DuplicateVerifierError
	require.ErrorAs(t, err, &dupErr)
	require.NoError(t, r.AddVerifier(testClaimant))
	verifiers, err := r.Verifiers()
	require.NoError(t, err)
	assert.Equal(t, []string{testVerifier, testClaimant}, verifiers)
}
