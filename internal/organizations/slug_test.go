package organizations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "EventBuddy", "eventbuddy"},
		{"spaces", "Night Of The Proms", "night-of-the-proms"},
		{"german umlauts", "Münchner Kulturverein", "muenchner-kulturverein"},
		{"eszett", "Straßenfest Köln", "strassenfest-koeln"},
		{"diacritics", "Café Olé", "cafe-ole"},
		{"punctuation runs", "Rock & Roll!!! e.V.", "rock-roll-e-v"},
		{"leading and trailing junk", "  --Hello World--  ", "hello-world"},
		{"digits", "Club 27", "club-27"},
		{"already a slug", "some-slug-123", "some-slug-123"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSlug(tt.in))
		})
	}
}

func TestComputeSlug_Deterministic(t *testing.T) {
	a := ComputeSlug("Münchner Straßenfest 2026")
	b := ComputeSlug("Münchner Straßenfest 2026")
	assert.Equal(t, a, b)
	assert.Equal(t, "muenchner-strassenfest-2026", a)
}
