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

// Package commitment implements the hash commitment scheme used to blind
// credential values (grades, certificate payloads) before they are placed
// on the simulated ledger. A commitment is keccak256 over the packed value
// and a random salt, matching the original on-chain scheme. This is a
// revealed-equality check, not a zero-knowledge proof: verification
// requires the claimant to disclose the value and salt to the verifier.
package commitment

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	// MinGrade and MaxGrade bound the committable grade domain
	MinGrade = 0
	MaxGrade = 100
	// SaltLength is the expected length of a salt in bytes
	SaltLength = 32
)

// InvalidValueError is returned when a value outside the committable
// domain is passed to the codec
type InvalidValueError struct {
	Value int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf(
		"grade %d outside committable range [%d, %d]",
		e.Value,
		MinGrade,
		MaxGrade,
	)
}

// InvalidSaltError is returned when a salt is malformed
type InvalidSaltError struct {
	Salt   string
	Reason string
}

func (e *InvalidSaltError) Error() string {
	return fmt.Sprintf("invalid salt %q: %s", e.Salt, e.Reason)
}

// GenerateSalt returns a cryptographically random 32-byte blinding value
// as a 0x-prefixed hex string. Salt strength is the one real security
// property here: it prevents dictionary guessing of the small grade domain
// and keeps commitments for equal values unlinkable.
func GenerateSalt() (string, error) {
	buf := make([]byte, SaltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return "0x" + hex.EncodeToString(buf), nil
}

// decodeSalt validates salt format and returns the raw bytes
func decodeSalt(salt string) ([]byte, error) {
	if !strings.HasPrefix(salt, "0x") {
		return nil, &InvalidSaltError{Salt: salt, Reason: "missing 0x prefix"}
	}
	raw, err := hex.DecodeString(salt[2:])
	if err != nil {
		return nil, &InvalidSaltError{Salt: salt, Reason: "not valid hex"}
	}
	if len(raw) != SaltLength {
		return nil, &InvalidSaltError{
			Salt: salt,
			Reason: fmt.Sprintf(
				"expected %d bytes, got %d",
				SaltLength,
				len(raw),
			),
		}
	}
	return raw, nil
}

func keccak256(data ...[]byte) string {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// CommitGrade derives the commitment for a grade and salt. The same
// (grade, salt) pair always yields the same commitment
func CommitGrade(grade int, salt string) (string, error) {
	if grade < MinGrade || grade > MaxGrade {
		return "", &InvalidValueError{Value: grade}
	}
	saltBytes, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}
	// Pack as uint8 ++ bytes32, matching the original scheme
	return keccak256([]byte{byte(grade)}, saltBytes), nil
}

// CommitCertificate derives the commitment for an arbitrary certificate
// payload and salt. The payload is first reduced to a keccak256 digest of
// its JSON encoding, then combined with the salt identically to the grade
// path.
func CommitCertificate(payload any, salt string) (string, error) {
	saltBytes, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode certificate payload: %w", err)
	}
	payloadDigest := sha3.NewLegacyKeccak256()
	payloadDigest.Write(encoded)
	return keccak256(payloadDigest.Sum(nil), saltBytes), nil
}

// RecomputeGrade recomputes a candidate commitment from a revealed grade
// and salt. Verifiers compare the result against the registered commitment
func RecomputeGrade(claimedGrade int, salt string) (string, error) {
	return CommitGrade(claimedGrade, salt)
}

// RecomputeCertificate recomputes a candidate commitment from a revealed
// certificate payload and salt
func RecomputeCertificate(claimedPayload any, salt string) (string, error) {
	return CommitCertificate(claimedPayload, salt)
}
