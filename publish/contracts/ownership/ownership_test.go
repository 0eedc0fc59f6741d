package ownership

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestOwnerFromReceipt(t *testing.T) {
	deployer := common.HexToAddress("0x1000000000000000000000000000000000000001")
	next := common.HexToAddress("0x2000000000000000000000000000000000000002")
	transferred := func(from, to common.Address) *types.Log {
		return &types.Log{Topics: []common.Hash{
			eventOwnershipTransferred.Topic0,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		}}
	}

	receipt := &types.Receipt{Logs: []*types.Log{
		transferred(common.Address{}, deployer),
		{Topics: []common.Hash{common.HexToHash("0x02")}},
		transferred(deployer, next),
	}}
	got, err := OwnerFromReceipt(receipt)
	require.NoError(t, err)
	require.Equal(t, next, got)

	_, err = OwnerFromReceipt(&types.Receipt{})
	require.ErrorContains(t, err, "OwnershipTransferred event not found")
}

func TestEncoders(t *testing.T) {
	data, err := EncodeOwner()
	require.NoError(t, err)
	require.Equal(t, []byte{0x8d, 0xa5, 0xcb, 0x5b}, data)

	owner := common.HexToAddress("0x2000000000000000000000000000000000000002")
	data, err = EncodeTransferOwnership(owner)
	require.NoError(t, err)
	require.Equal(t, []byte{0xf2, 0xfd, 0xe3, 0x8b}, data[:4])
	require.Len(t, data, 36)

	out, err := funcOwner.Returns.Pack(owner)
	require.NoError(t, err)
	got, err := DecodeOwner(out)
	require.NoError(t, err)
	require.Equal(t, owner, got)
}
