package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmo-local-credit/diamond/publish/contracts/ownership"
)

// TransferOwnership hands the diamond to newOwner. The sender must be the
// current owner, and both the emitted event and owner() must name newOwner
// once the transaction is mined.
func TransferOwnership(ctx context.Context, env Env, addr, newOwner common.Address) (*OwnershipTransfer, error) {
	if newOwner == (common.Address{}) {
		return nil, errors.New("new owner is required")
	}
	if err := requireCode(ctx, env, "diamond", addr); err != nil {
		return nil, err
	}
	previous, err := readOwner(ctx, env, addr)
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}
	if sender := env.Chain.Address(); previous != sender {
		return nil, fmt.Errorf("sender %s is not the diamond owner %s", sender.Hex(), previous.Hex())
	}
	if previous == newOwner {
		return nil, fmt.Errorf("diamond is already owned by %s", newOwner.Hex())
	}

	input, err := ownership.EncodeTransferOwnership(newOwner)
	if err != nil {
		return nil, fmt.Errorf("encode transferOwnership: %w", err)
	}
	txHash, err := env.Chain.SendCall(ctx, addr, input, nil, env.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("send transferOwnership: %w", err)
	}
	receipt, err := waitMined(ctx, env, "transferOwnership", txHash)
	if err != nil {
		return nil, err
	}
	emitted, err := ownership.OwnerFromReceipt(receipt)
	if err != nil {
		return nil, err
	}
	if emitted != newOwner {
		return nil, fmt.Errorf("ownership transferred to %s, want %s", emitted.Hex(), newOwner.Hex())
	}
	current, err := readOwner(ctx, env, addr)
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}
	if current != newOwner {
		return nil, fmt.Errorf("owner is %s, want %s", current.Hex(), newOwner.Hex())
	}

	env.logger().Info("Transferred ownership", "diamond", addr, "from", previous, "to", newOwner, "tx", txHash)
	env.printf("Ownership transferred: %s -> %s", previous.Hex(), newOwner.Hex())
	return &OwnershipTransfer{Diamond: addr, PreviousOwner: previous, NewOwner: newOwner, TxHash: txHash}, nil
}
