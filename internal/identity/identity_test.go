package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and lowercases", " A@B.com ", "a@b.com"},
		{"already canonical", "a@b.com", "a@b.com"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"mixed case", "Carol.Smith@Example.COM", "carol.smith@example.com"},
		{"tabs and newlines", "\tuser@host\n", "user@host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{" A@B.com ", "X", "", "  Mixed Case  ", "déjà@vu.fr"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}
