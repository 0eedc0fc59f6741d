// Package pipeline runs the multi-transaction flows of diamond-publish:
// deploying a diamond with its facets, cutting facets into an existing
// diamond, inspecting it through the loupe and sending the validation
// payment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/artifacts"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
)

// Chain is the subset of *publish.Deployer the pipelines need.
type Chain interface {
	Address() common.Address
	DeployContract(ctx context.Context, data []byte, value *big.Int, gasLimit uint64) (publish.DeployResult, error)
	DeployDeterministicViaArachnid(ctx context.Context, salt common.Hash, initCode []byte, gasLimit uint64) (publish.DeployResult, error)
	SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int, gasLimit uint64) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
}

var _ Chain = (*publish.Deployer)(nil)

type Env struct {
	Chain     Chain
	Artifacts *artifacts.Store
	Log       log.Logger
	// Out receives the human readable progress lines. Nil discards them.
	Out io.Writer
	// GasLimit applies to every transaction; zero estimates each one.
	GasLimit uint64
	// Deterministic deploys DiamondInit and facets through the CREATE2
	// factory and reuses copies that already exist at the predicted address.
	Deterministic bool
}

func (e Env) logger() log.Logger {
	if e.Log == nil {
		return log.Root()
	}
	return e.Log
}

func (e Env) printf(format string, args ...any) {
	if e.Out == nil {
		return
	}
	fmt.Fprintf(e.Out, format+"\n", args...)
}

func (e Env) artifact(name string) (*artifacts.Artifact, error) {
	if e.Artifacts == nil {
		return nil, errors.New("no artifacts loaded")
	}
	art, err := e.Artifacts.Artifact(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return art, nil
}

// waitMined waits for txHash and requires a successful receipt.
func waitMined(ctx context.Context, env Env, what string, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := env.Chain.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", what, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%s failed: %s", what, txHash.Hex())
	}
	return receipt, nil
}

func ensureCreate2Factory(ctx context.Context, env Env) error {
	code, err := env.Chain.CodeAt(ctx, publish.ArachnidCreate2Factory)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return fmt.Errorf("deterministic deployment proxy %s has no code", publish.ArachnidCreate2Factory.Hex())
	}
	return nil
}

// deployContract sends initCode as a plain creation, or through the CREATE2
// factory when deterministic is set.
func deployContract(ctx context.Context, env Env, name string, initCode []byte, deterministic bool) (Contract, error) {
	lg := env.logger()
	var (
		result publish.DeployResult
		err    error
	)
	if deterministic {
		salt := publish.GenerateSalt(env.Chain.Address(), name)
		predicted := publish.PredictCreate2Address(publish.ArachnidCreate2Factory, salt, initCode)
		code, err := env.Chain.CodeAt(ctx, predicted)
		if err != nil {
			return Contract{}, err
		}
		if len(code) > 0 {
			lg.Info("Reusing deployed contract", "name", name, "address", predicted)
			return Contract{Name: name, Address: predicted, Reused: true}, nil
		}
		result, err = env.Chain.DeployDeterministicViaArachnid(ctx, salt, initCode, env.GasLimit)
		if err != nil {
			return Contract{}, fmt.Errorf("deploy %s: %w", name, err)
		}
	} else {
		result, err = env.Chain.DeployContract(ctx, initCode, nil, env.GasLimit)
		if err != nil {
			return Contract{}, fmt.Errorf("deploy %s: %w", name, err)
		}
	}
	lg.Debug("Sent deployment", "name", name, "tx", result.TxHash, "address", result.ContractAddress)

	if _, err := waitMined(ctx, env, name+" deployment", result.TxHash); err != nil {
		return Contract{}, err
	}
	lg.Info("Deployed contract", "name", name, "address", result.ContractAddress, "tx", result.TxHash)
	return Contract{Name: name, Address: result.ContractAddress, TxHash: result.TxHash}, nil
}

func requireCode(ctx context.Context, env Env, what string, addr common.Address) error {
	code, err := env.Chain.CodeAt(ctx, addr)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return fmt.Errorf("%s %s has no code", what, addr.Hex())
	}
	return nil
}

func loupeFacets(ctx context.Context, env Env, addr common.Address) ([]diamond.Facet, error) {
	input, err := diamond.EncodeFacets()
	if err != nil {
		return nil, err
	}
	output, err := env.Chain.Call(ctx, addr, input)
	if err != nil {
		return nil, err
	}
	return diamond.DecodeFacets(output)
}

func loupeFacetAddress(ctx context.Context, env Env, addr common.Address, sel [4]byte) (common.Address, error) {
	input, err := diamond.EncodeFacetAddress(sel)
	if err != nil {
		return common.Address{}, err
	}
	output, err := env.Chain.Call(ctx, addr, input)
	if err != nil {
		return common.Address{}, err
	}
	return diamond.DecodeFacetAddress(output)
}

func loupeFacetSelectors(ctx context.Context, env Env, addr, facet common.Address) ([][4]byte, error) {
	input, err := diamond.EncodeFacetFunctionSelectors(facet)
	if err != nil {
		return nil, err
	}
	output, err := env.Chain.Call(ctx, addr, input)
	if err != nil {
		return nil, err
	}
	return diamond.DecodeFacetFunctionSelectors(output)
}
