package ownership

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
)

const FacetName = "OwnershipFacet"

var (
	funcOwner = w3.MustNewFunc(
		"owner()", "address",
	)
	funcTransferOwnership = w3.MustNewFunc(
		"transferOwnership(address)", "",
	)
	eventOwnershipTransferred = w3.MustNewEvent(
		"OwnershipTransferred(address indexed previousOwner,address indexed newOwner)",
	)
)

func EncodeOwner() ([]byte, error) {
	return funcOwner.EncodeArgs()
}

func DecodeOwner(output []byte) (common.Address, error) {
	var owner common.Address
	if err := funcOwner.DecodeReturns(output, &owner); err != nil {
		return common.Address{}, fmt.Errorf("decode owner: %w", err)
	}
	return owner, nil
}

func EncodeTransferOwnership(newOwner common.Address) ([]byte, error) {
	return funcTransferOwnership.EncodeArgs(newOwner)
}

// OwnerFromReceipt returns the new owner of the last OwnershipTransferred
// event in the receipt.
func OwnerFromReceipt(receipt *types.Receipt) (common.Address, error) {
	var (
		found bool
		owner common.Address
	)
	for _, log := range receipt.Logs {
		var previous, next common.Address
		if err := eventOwnershipTransferred.DecodeArgs(log, &previous, &next); err == nil {
			owner, found = next, true
		}
	}
	if !found {
		return common.Address{}, errors.New("OwnershipTransferred event not found in receipt logs")
	}
	return owner, nil
}
