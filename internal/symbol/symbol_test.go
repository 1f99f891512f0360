package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"mixed case duplicates", []string{"aapl", "AAPL", " msft "}, []string{"AAPL", "MSFT"}},
		{"blanks dropped", []string{"", "  ", "\tgoog\n"}, []string{"GOOG"}},
		{"first appearance order", []string{"msft", "aapl", "Msft", "tsla", "AAPL"}, []string{"MSFT", "AAPL", "TSLA"}},
		{"nil", nil, []string{}},
		{"all blank", []string{" ", ""}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := [][]string{
		{"aapl", "AAPL", " msft "},
		{"brk.b", "BRK.B", "rds-a"},
		{},
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once))
	}
}
