package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainLogEntry = "clsim/log-entry/v1"
	DomainModel    = "clsim/model/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// LogEntryID computes the content-addressed ID of a log entry within a run.
// Identical entries written twice (e.g. a retried flush) collapse to one row.
func LogEntryID(runID, owner, activityID, state, label string, t, seq int64) (string, error) {
	obj := map[string]any{
		"run_id":      runID,
		"owner":       owner,
		"activity_id": activityID,
		"state":       state,
		"label":       label,
		"t":           t,
		"seq":         seq,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("LogEntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLogEntry, canonical), nil
}

// ModelHash computes a stable hash of a decoded model description.
// Runs of the same model share the hash, which the store records per run.
func ModelHash(model map[string]any) (string, error) {
	canonical, err := MarshalCanonical(model)
	if err != nil {
		return "", fmt.Errorf("ModelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}
