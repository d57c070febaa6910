package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeyPart(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MIS Quarterly", "mis-quarterly"},
		{"www.loc.de/subpage.html", "wwwlocde-subpagehtml"},
		{"E-Marketplaces 1997–2008", "e-marketplaces-1997-2008"},
		{"Editor's  Comments", "editors-comments"},
		{"Décision Support", "decision-support"},
		{"  - leading and trailing - ", "leading-and-trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeKeyPart(tt.in), tt.in)
	}
}

func TestSurnameKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rai, Arun", "rai"},
		{"Standing, Craig and Standing, Susan and Love, Peter", "standing-standing-love"},
		{"Jane Webster", "webster"},
		{"van der Aalst, Wil", "van-der-aalst"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, surnameKey(tt.in), tt.in)
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rai, Arun", "rai a"},
		{"Webster, Jane and Watson, Rick", "webster j watson r"},
		{"Jane Webster", "webster j"},
		{"Rai, A", "rai a"},
		{"Müller, Jörg", "muller j"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAuthors(tt.in), tt.in)
	}
}
