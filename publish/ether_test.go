package publish

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10", "10000000000000000000"},
		{"0.5", "500000000000000000"},
		{".25", "250000000000000000"},
		{"1.000000000000000001", "1000000000000000001"},
		{"0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "-1", "1.0000000000000000001", "abc", "1e18", "+5", "1.+5", ".", "1 .5", "0x10", "1.-5"} {
		_, err := ParseEther(in)
		require.Error(t, err, in)
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"10000000000000000000", "10.0"},
		{"500000000000000000", "0.5"},
		{"1000000000000000001", "1.000000000000000001"},
		{"0", "0.0"},
		{"10007000000000000000000", "10007.0"},
	}
	for _, tt := range tests {
		wei, ok := new(big.Int).SetString(tt.wei, 10)
		require.True(t, ok)
		require.Equal(t, tt.want, FormatEther(wei))
	}
	require.Equal(t, "0.0", FormatEther(nil))
	require.Equal(t, "-1.5", FormatEther(big.NewInt(-1_500_000_000_000_000_000)))
}
