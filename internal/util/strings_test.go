package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty", in: []string{}, want: nil},
		{name: "only blanks", in: []string{"", ""}, want: nil},
		{name: "keeps order", in: []string{"b", "a", "b", "c", "a"}, want: []string{"b", "a", "c"}},
		{name: "drops blanks", in: []string{"a", "", "a"}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UniqueStrings(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "dev@co.com", NormalizeEmail("  Dev@Co.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestSplitCSV(t *testing.T) {
	assert.Nil(t, SplitCSV(""))
	assert.Equal(t, []string{"a", "b"}, SplitCSV(" a, ,b ,"))
}
