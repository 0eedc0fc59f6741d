package diamondinit

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const Name = "DiamondInit"

// EncodeInit packs the init() call the diamond constructor delegatecalls.
// The initializer's ABI must declare init without arguments.
func EncodeInit(contract abi.ABI) ([]byte, error) {
	method, ok := contract.Methods["init"]
	if !ok {
		return nil, errors.New("no init() function")
	}
	if len(method.Inputs) > 0 {
		return nil, fmt.Errorf("%s takes %d arguments, want none", method.Sig, len(method.Inputs))
	}
	return contract.Pack("init")
}
