package publish

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ArachnidCreate2Factory is the keyless deterministic deployment proxy present
// on most EVM networks. Calldata is salt (32 bytes) followed by init code.
var ArachnidCreate2Factory = common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")

// GenerateSalt derives a per-deployer salt so two operators deploying the same
// contract name do not collide.
func GenerateSalt(deployer common.Address, name string) common.Hash {
	return crypto.Keccak256Hash(deployer.Bytes(), []byte(name))
}

func PredictCreate2Address(factory common.Address, salt common.Hash, initCode []byte) common.Address {
	return crypto.CreateAddress2(factory, salt, crypto.Keccak256(initCode))
}

func (d *Deployer) DeployDeterministicViaArachnid(ctx context.Context, salt common.Hash, initCode []byte, gasLimit uint64) (DeployResult, error) {
	data := make([]byte, 0, common.HashLength+len(initCode))
	data = append(data, salt.Bytes()...)
	data = append(data, initCode...)

	txHash, err := d.SendCall(ctx, ArachnidCreate2Factory, data, nil, gasLimit)
	if err != nil {
		return DeployResult{}, err
	}
	return DeployResult{
		TxHash:          txHash,
		ContractAddress: PredictCreate2Address(ArachnidCreate2Factory, salt, initCode),
	}, nil
}
