package identity

import (
	"math"
	"strings"

	"github.com/sells-group/litreview-cli/internal/model"
)

// Weights distribute the similarity mass across field components. Values are
// empirically tuned, not derived; they should sum to 1.
type Weights struct {
	Author float64 `yaml:"author" mapstructure:"author"`
	Title  float64 `yaml:"title" mapstructure:"title"`
	Year   float64 `yaml:"year" mapstructure:"year"`
	Outlet float64 `yaml:"outlet" mapstructure:"outlet"`
	Volume float64 `yaml:"volume" mapstructure:"volume"`
	Number float64 `yaml:"number" mapstructure:"number"`
	Pages  float64 `yaml:"pages" mapstructure:"pages"`
}

// DefaultWeights apply to journal articles with distinctive titles.
var DefaultWeights = Weights{
	Author: 0.25, Title: 0.30, Year: 0.13, Outlet: 0.20,
	Volume: 0.05, Number: 0.05, Pages: 0.02,
}

// GenericTitleWeights apply when both titles are non-distinctive boilerplate;
// the title component is zeroed and its mass spread over the rest.
var GenericTitleWeights = Weights{
	Author: 0.175, Title: 0, Year: 0.175, Outlet: 0.175,
	Volume: 0.175, Number: 0.175, Pages: 0.125,
}

// BooktitleWeights apply to proceedings papers, which rarely carry volume,
// number, or reliable page data.
var BooktitleWeights = Weights{
	Author: 0.15, Title: 0.75, Year: 0.05, Outlet: 0.05,
}

// genericTitles are boilerplate titles that carry no identifying signal.
// Keys are in cleanCompare form (lowercase, punctuation stripped).
var genericTitles = map[string]bool{
	"editorial":              true,
	"editorial introduction": true,
	"editorial notes":        true,
	"editorial note":         true,
	"editors comments":       true,
	"book reviews":           true,
}

// Result carries the similarity score and a data-quality flag.
type Result struct {
	Score float64
	// MissingOutlet is set when the records share no container field, so no
	// meaningful comparison was possible and Score is 0.
	MissingOutlet bool
}

// Similarity returns the weighted field similarity of two records in [0,1],
// rounded to four decimals. Symmetric and deterministic.
func Similarity(a, b *model.Record) float64 {
	return Compare(a, b, DefaultWeights).Score
}

// Compare computes the similarity of two records with a caller-supplied
// journal weight vector (generic-title and booktitle reweighting still apply).
func Compare(a, b *model.Record, journalWeights Weights) Result {
	authorSim := PartialRatio(formatAuthors(a.GetValue(model.FieldAuthor)), formatAuthors(b.GetValue(model.FieldAuthor)))
	titleA := cleanCompare(a.GetValue(model.FieldTitle))
	titleB := cleanCompare(b.GetValue(model.FieldTitle))
	titleSim := Ratio(titleA, titleB)
	yearSim := PartialRatio(a.GetValue(model.FieldYear), b.GetValue(model.FieldYear))

	switch {
	case a.Has(model.FieldJournal) && b.Has(model.FieldJournal):
		outletSim := Ratio(
			cleanCompare(a.GetValue(model.FieldJournal)),
			cleanCompare(b.GetValue(model.FieldJournal)),
		)
		w := journalWeights
		if genericTitles[titleA] && genericTitles[titleB] {
			w = GenericTitleWeights
		}
		score := w.Author*authorSim +
			w.Title*titleSim +
			w.Year*yearSim +
			w.Outlet*outletSim +
			w.Volume*equalSim(a.GetValue(model.FieldVolume), b.GetValue(model.FieldVolume)) +
			w.Number*equalSim(a.GetValue(model.FieldNumber), b.GetValue(model.FieldNumber)) +
			w.Pages*pagesSim(a.GetValue(model.FieldPages), b.GetValue(model.FieldPages))
		return Result{Score: round4(score)}

	case a.Has(model.FieldBooktitle) && b.Has(model.FieldBooktitle):
		outletSim := Ratio(
			cleanCompare(a.GetValue(model.FieldBooktitle)),
			cleanCompare(b.GetValue(model.FieldBooktitle)),
		)
		w := BooktitleWeights
		score := w.Author*authorSim + w.Title*titleSim + w.Year*yearSim + w.Outlet*outletSim
		return Result{Score: round4(score)}

	default:
		return Result{MissingOutlet: true}
	}
}

// cleanCompare lowercases and strips every character outside letters, digits,
// space, and comma, so punctuation variants of the same title or outlet
// compare equal.
func cleanCompare(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == ' ' || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func equalSim(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

// pagesSim compares page ranges, falling back to the first page when either
// side records only that. Absent pages on either side count as a match.
func pagesSim(a, b string) float64 {
	if a == "" || b == "" {
		return 1
	}
	if a == b {
		return 1
	}
	firstA, rangeA := firstPage(a)
	firstB, rangeB := firstPage(b)
	if firstA == firstB && (!rangeA || !rangeB) {
		return 1
	}
	return 0
}

func firstPage(pages string) (first string, isRange bool) {
	if i := strings.Index(pages, "--"); i >= 0 {
		return strings.TrimSpace(pages[:i]), true
	}
	if i := strings.IndexByte(pages, '-'); i >= 0 {
		return strings.TrimSpace(pages[:i]), true
	}
	return strings.TrimSpace(pages), false
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
