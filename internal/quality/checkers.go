package quality

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/litreview-cli/internal/identity"
	"github.com/sells-group/litreview-cli/internal/model"
)

// MissingFieldChecker flags required fields that are absent or UNKNOWN.
type MissingFieldChecker struct{}

func (c *MissingFieldChecker) Name() string { return "missing-field" }

func (c *MissingFieldChecker) Run(_ context.Context, r *model.Record) error {
	for _, key := range model.RequiredFields(r.EntryType) {
		val, ok := r.Fields[key]
		switch {
		case ok && val != model.ValueUnknown:
			r.RemoveProvenanceNote(key, model.DefectMissing)
		case r.DefectIgnored(key, model.DefectMissing):
			// Waived by the user; leave the IGNORE note in place.
		default:
			r.AddProvenanceNote(key, model.DefectMissing)
		}
	}
	return nil
}

// AllCapsChecker flags shouting-case values in name-bearing fields.
type AllCapsChecker struct {
	Allow *Allowlists
}

var allCapsFields = []string{
	model.FieldAuthor, model.FieldTitle, model.FieldJournal,
	model.FieldBooktitle, model.FieldEditor,
}

func (c *AllCapsChecker) Name() string { return "mostly-all-caps" }

func (c *AllCapsChecker) Run(_ context.Context, r *model.Record) error {
	for _, key := range allCapsFields {
		if r.DefectIgnored(key, model.DefectMostlyAllCaps) {
			continue
		}
		if c.flagged(r, key) {
			r.AddProvenanceNote(key, model.DefectMostlyAllCaps)
		} else {
			r.RemoveProvenanceNote(key, model.DefectMostlyAllCaps)
		}
	}
	return nil
}

func (c *AllCapsChecker) flagged(r *model.Record, key string) bool {
	val := r.GetValue(key)
	if val == "" || val == model.ValueUnknown {
		return false
	}
	if c.Allow.AllowedAllCaps(val) {
		return false
	}
	// Short venue names are usually legitimate acronyms (MISQ, ICIS).
	if (key == model.FieldJournal || key == model.FieldBooktitle) && len(val) < 6 {
		return false
	}
	// Short online titles are frequently codes or handles.
	if r.EntryType == model.EntryTypeOnline && key == model.FieldTitle && len(val) < 10 {
		return false
	}
	return upperRatio(strings.ReplaceAll(val, " and ", " ")) > 0.7
}

func upperRatio(s string) float64 {
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// InconsistentFieldChecker flags fields that contradict the entry type, e.g.
// a journal on an inproceedings record.
type InconsistentFieldChecker struct{}

func (c *InconsistentFieldChecker) Name() string { return "inconsistent-with-entrytype" }

func (c *InconsistentFieldChecker) Run(_ context.Context, r *model.Record) error {
	inconsistent := map[string]bool{}
	for _, key := range model.InconsistentFields(r.EntryType) {
		inconsistent[key] = true
		if !r.Has(key) {
			continue
		}
		if !r.DefectIgnored(key, model.DefectInconsistentWithType) {
			r.AddProvenanceNote(key, model.DefectInconsistentWithType)
		}
	}
	// Clear notes that no longer apply, e.g. after an entry-type change.
	for key := range r.MDProv {
		if !inconsistent[key] || !r.Has(key) {
			r.RemoveProvenanceNote(key, model.DefectInconsistentWithType)
		}
	}
	return nil
}

// YearFormatChecker flags year values that are not a four-digit number.
type YearFormatChecker struct{}

var yearRe = regexp.MustCompile(`^\d{4}$`)

func (c *YearFormatChecker) Name() string { return "year-format" }

func (c *YearFormatChecker) Run(_ context.Context, r *model.Record) error {
	year, ok := r.Fields[model.FieldYear]
	if !ok || year == model.ValueUnknown || r.DefectIgnored(model.FieldYear, model.DefectYearFormat) {
		return nil
	}
	if yearRe.MatchString(year) {
		r.RemoveProvenanceNote(model.FieldYear, model.DefectYearFormat)
	} else {
		r.AddProvenanceNote(model.FieldYear, model.DefectYearFormat)
	}
	return nil
}

// TOCStatus is the answer of a table-of-contents lookup.
type TOCStatus int

const (
	// TOCUnknown means the container is not indexed; never penalized.
	TOCUnknown TOCStatus = iota
	// TOCListed means the record's container issue is in the index.
	TOCListed
	// TOCMissing means the container is indexed but this issue is not: an
	// explicit contradiction.
	TOCMissing
)

// TOCLookup answers whether a TOC key exists in the local index.
type TOCLookup interface {
	Contains(ctx context.Context, tocKey string) (TOCStatus, error)
}

// TOCChecker flags records whose issue contradicts the local TOC index.
type TOCChecker struct {
	Index TOCLookup
}

func (c *TOCChecker) Name() string { return "record-not-in-toc" }

func (c *TOCChecker) Run(ctx context.Context, r *model.Record) error {
	key, err := identity.TOCKey(r)
	if err != nil {
		var notID *model.NotIdentifiableError
		if errors.As(err, &notID) {
			return nil
		}
		return err
	}

	status, err := c.Index.Contains(ctx, key)
	if err != nil {
		return eris.Wrapf(err, "quality: toc lookup %s", key)
	}

	flagKey := model.FieldJournal
	if r.EntryType != model.EntryTypeArticle {
		flagKey = model.FieldBooktitle
	}
	if status == TOCMissing && !r.DefectIgnored(flagKey, model.DefectNotInTOC) {
		r.AddProvenanceNote(flagKey, model.DefectNotInTOC)
	} else if status != TOCMissing {
		r.RemoveProvenanceNote(flagKey, model.DefectNotInTOC)
	}
	return nil
}
