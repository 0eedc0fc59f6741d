package diamondinit

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

func parseABI(t *testing.T, js string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(js))
	require.NoError(t, err)
	return parsed
}

func TestEncodeInit(t *testing.T) {
	contract := parseABI(t, `[{"type":"function","name":"init","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`)
	data, err := EncodeInit(contract)
	require.NoError(t, err)
	require.Equal(t, []byte{0xe1, 0xc7, 0x39, 0x2a}, data)
}

func TestEncodeInitRejects(t *testing.T) {
	tests := []struct {
		name string
		abi  string
		err  string
	}{
		{
			name: "missing",
			abi:  `[{"type":"function","name":"setup","inputs":[],"outputs":[],"stateMutability":"nonpayable"}]`,
			err:  "no init() function",
		},
		{
			name: "arguments",
			abi:  `[{"type":"function","name":"init","inputs":[{"name":"owner","type":"address"}],"outputs":[],"stateMutability":"nonpayable"}]`,
			err:  "init(address) takes 1 arguments, want none",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeInit(parseABI(t, tt.abi))
			require.ErrorContains(t, err, tt.err)
		})
	}
}
