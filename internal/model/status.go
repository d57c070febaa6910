package model

import "github.com/rotisserie/eris"

// Status is the lifecycle state of a record.
type Status string

const (
	StatusRetrieved          Status = "md_retrieved"
	StatusImported           Status = "md_imported"
	StatusNeedsManualPrep    Status = "md_needs_manual_preparation"
	StatusPrepared           Status = "md_prepared"
	StatusProcessed          Status = "md_processed"
	StatusPrescreenIncl      Status = "rev_prescreen_included"
	StatusPrescreenExcl      Status = "rev_prescreen_excluded"
	StatusPDFNeedsManualRetr Status = "pdf_needs_manual_retrieval"
	StatusPDFImported        Status = "pdf_imported"
	StatusPDFNotAvailable    Status = "pdf_not_available"
	StatusPDFNeedsManualPrep Status = "pdf_needs_manual_preparation"
	StatusPDFPrepared        Status = "pdf_prepared"
	StatusIncluded           Status = "rev_included"
	StatusExcluded           Status = "rev_excluded"
	StatusSynthesized        Status = "rev_synthesized"
)

// AllStatuses lists every lifecycle state in pipeline order.
var AllStatuses = []Status{
	StatusRetrieved,
	StatusImported,
	StatusNeedsManualPrep,
	StatusPrepared,
	StatusProcessed,
	StatusPrescreenIncl,
	StatusPrescreenExcl,
	StatusPDFNeedsManualRetr,
	StatusPDFImported,
	StatusPDFNotAvailable,
	StatusPDFNeedsManualPrep,
	StatusPDFPrepared,
	StatusIncluded,
	StatusExcluded,
	StatusSynthesized,
}

var statusSet = func() map[Status]bool {
	m := make(map[Status]bool, len(AllStatuses))
	for _, s := range AllStatuses {
		m[s] = true
	}
	return m
}()

func (s Status) String() string { return string(s) }

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool { return statusSet[s] }

// Terminal reports whether no further pipeline operation advances s.
func (s Status) Terminal() bool {
	switch s {
	case StatusPrescreenExcl, StatusExcluded, StatusPDFNotAvailable, StatusSynthesized:
		return true
	}
	return false
}

// ParseStatus validates a raw status string from storage or user input.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", eris.Errorf("unknown record status %q", raw)
	}
	return s, nil
}
