package identity

import "github.com/sells-group/litreview-cli/internal/model"

// TOCKey derives the table-of-contents key a record belongs to: the issue of
// a journal ("journal|volume|number") or the proceedings of a year
// ("booktitle|year"). Records of other entry types have no TOC.
func TOCKey(r *model.Record) (string, error) {
	segment := func(key string) string {
		v := r.GetValue(key)
		if v == model.ValueUnknown {
			return ""
		}
		return v
	}

	switch r.EntryType {
	case model.EntryTypeArticle:
		journal := normalizeKeyPart(segment(model.FieldJournal))
		if journal == "" {
			return "", &model.NotIdentifiableError{ID: r.ID, Missing: []string{model.FieldJournal}}
		}
		return journal + "|" + segment(model.FieldVolume) + "|" + segment(model.FieldNumber), nil
	case model.EntryTypeInProceedings, model.EntryTypeProceedings:
		booktitle := normalizeKeyPart(segment(model.FieldBooktitle))
		if booktitle == "" {
			return "", &model.NotIdentifiableError{ID: r.ID, Missing: []string{model.FieldBooktitle}}
		}
		return booktitle + "|" + segment(model.FieldYear), nil
	default:
		return "", &model.NotIdentifiableError{ID: r.ID, Missing: []string{"toc rule for " + r.EntryType}}
	}
}
