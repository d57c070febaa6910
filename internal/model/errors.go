package model

import (
	"fmt"
	"strings"
)

// InvalidMergeError reports a merge that would conflate two distinct works,
// e.g. mismatched part suffixes or a one-sided erratum/commentary marker.
type InvalidMergeError struct {
	IDA    string
	IDB    string
	Reason string
}

func (e *InvalidMergeError) Error() string {
	return fmt.Sprintf("invalid merge of %s and %s: %s", e.IDA, e.IDB, e.Reason)
}

// NotIdentifiableError indicates a record lacks the fields needed to derive
// an identity key. Recoverable: the record simply cannot participate in
// fingerprint-based matching yet.
type NotIdentifiableError struct {
	ID      string
	Missing []string
}

func (e *NotIdentifiableError) Error() string {
	return fmt.Sprintf("record %s not identifiable: missing %s", e.ID, strings.Join(e.Missing, ", "))
}

// MissingQualityRuleError indicates no field-requirement rule exists for the
// requested entry type, so a type change cannot be validated.
type MissingQualityRuleError struct {
	EntryType string
}

func (e *MissingQualityRuleError) Error() string {
	return fmt.Sprintf("no field-requirement rule for entry type %q", e.EntryType)
}

// StructuralError indicates corrupted persisted data (unparseable provenance,
// invalid status). Non-recoverable without manual intervention.
type StructuralError struct {
	RecordID string
	Detail   string
}

func (e *StructuralError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("structural error: %s", e.Detail)
	}
	return fmt.Sprintf("structural error in record %s: %s", e.RecordID, e.Detail)
}
