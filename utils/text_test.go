package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "accents folded", input: "Île-de-France", expected: "ile-de-france"},
		{name: "whitespace collapsed", input: "  Saint   Étienne ", expected: "saint etienne"},
		{name: "already normalized", input: "lyon", expected: "lyon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Direct Activity", DisplayLabel("direct_activity"))
	assert.Equal(t, "E Sport", DisplayLabel("e-sport"))
	assert.Equal(t, "Education", DisplayLabel("education"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "atelier-theatre-1234abcd", Slugify("Atelier Théâtre", "1234abcd-5678"))
	assert.Equal(t, "atelier", Slugify("Atelier", ""))
	assert.Equal(t, "abc", Slugify("???", "abc"))
}
