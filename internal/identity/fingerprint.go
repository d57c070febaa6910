package identity

import (
	"strings"

	"github.com/sells-group/litreview-cli/internal/model"
)

// fingerprintPrefix versions the key scheme; bump it if the grammar changes.
const fingerprintPrefix = "colrev_id1:"

// containerRules maps entry types to the type tag and the field providing the
// publication container segment of the fingerprint.
var containerRules = map[string]struct {
	tag   string
	field string
}{
	model.EntryTypeArticle:       {"a", model.FieldJournal},
	model.EntryTypeInProceedings: {"p", model.FieldBooktitle},
	model.EntryTypeProceedings:   {"p", model.FieldBooktitle},
	model.EntryTypePhdThesis:     {"phdthesis", model.FieldSchool},
	model.EntryTypeMastersThesis: {"phdthesis", model.FieldSchool},
	model.EntryTypeTechReport:    {"techreport", model.FieldInstitution},
	model.EntryTypeOnline:        {"online", model.FieldURL},
	model.EntryTypeMonograph:     {"monogr", model.FieldSeries},
	model.EntryTypeBook:          {"book", model.FieldTitle},
}

// Fingerprint derives the deterministic identity key of a record:
//
//	colrev_id1:|<tag>|<container>|[<volume>|<number>|]<year>|<surnames>|<title>
//
// Volume and number segments appear for articles only, and only when present.
// Records lacking the fields the grammar needs are NotIdentifiable.
func Fingerprint(r *model.Record) (string, error) {
	rule, ok := containerRules[r.EntryType]
	if !ok {
		return "", &model.NotIdentifiableError{ID: r.ID, Missing: []string{"container rule for " + r.EntryType}}
	}

	var missing []string
	value := func(key string) string {
		v := r.GetValue(key)
		if v == "" || v == model.ValueUnknown {
			missing = append(missing, key)
			return ""
		}
		return v
	}

	container := normalizeKeyPart(value(rule.field))
	year := value(model.FieldYear)
	surnames := surnameKey(value(model.FieldAuthor))
	title := normalizeKeyPart(value(model.FieldTitle))
	if len(missing) > 0 || container == "" || surnames == "" || title == "" {
		if len(missing) == 0 {
			missing = []string{"normalizable identifying fields"}
		}
		return "", &model.NotIdentifiableError{ID: r.ID, Missing: missing}
	}

	var b strings.Builder
	b.WriteString(fingerprintPrefix)
	b.WriteString("|")
	b.WriteString(rule.tag)
	b.WriteString("|")
	b.WriteString(container)
	if r.EntryType == model.EntryTypeArticle {
		if v := r.GetValue(model.FieldVolume); v != "" && v != model.ValueUnknown {
			b.WriteString("|")
			b.WriteString(normalizeKeyPart(v))
		}
		if n := r.GetValue(model.FieldNumber); n != "" && n != model.ValueUnknown {
			b.WriteString("|")
			b.WriteString(normalizeKeyPart(n))
		}
	}
	b.WriteString("|")
	b.WriteString(year)
	b.WriteString("|")
	b.WriteString(surnames)
	b.WriteString("|")
	b.WriteString(title)
	return b.String(), nil
}
