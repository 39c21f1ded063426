// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/aegis/pkg/slug"
)

/*
TestFrom verifies the full normalization pipeline: accent folding, casing,
separator replacement, and hyphen cleanup.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple_name",
			input:    "Acme Corp",
			expected: "acme-corp",
		},
		{
			name:     "accented_characters",
			input:    "Crème Brûlée Inc",
			expected: "creme-brulee-inc",
		},
		{
			name:     "surrounding_and_repeated_whitespace",
			input:    "  Hello   World  ",
			expected: "hello-world",
		},
		{
			name:     "already_a_slug",
			input:    "already-slugged",
			expected: "already-slugged",
		},
		{
			name:     "trailing_punctuation",
			input:    "ACME!!!",
			expected: "acme",
		},
		{
			name:     "digits_survive",
			input:    "42 Things",
			expected: "42-things",
		},
		{
			name:     "punctuation_only_yields_empty",
			input:    "!!!",
			expected: "",
		},
		{
			name:     "non_latin_yields_empty",
			input:    "日本語",
			expected: "",
		},
		{
			name:     "empty_input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.From(tt.input))
		})
	}
}
