package publish

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

// GasHeadroomPercent is added on top of eth_estimateGas results.
const GasHeadroomPercent = 20

var receiptPollInterval = 2 * time.Second

type (
	DeployResult struct {
		TxHash          common.Hash
		ContractAddress common.Address
	}

	Deployer struct {
		client    *w3.Client
		chainID   *big.Int
		signer    types.Signer
		key       *ecdsa.PrivateKey
		address   common.Address
		gasFeeCap *big.Int
		gasTipCap *big.Int
	}
)

// NewDeployer dials rpcURL and prepares a London signer for the key. A zero
// chainID is resolved from the node.
func NewDeployer(ctx context.Context, rpcURL string, chainID int64, privateKey *ecdsa.PrivateKey, gasFeeCap, gasTipCap *big.Int) (*Deployer, error) {
	client, err := w3.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	id := big.NewInt(chainID)
	if chainID == 0 {
		var remote uint64
		if err := client.CallCtx(ctx, eth.ChainID().Returns(&remote)); err != nil {
			client.Close()
			return nil, fmt.Errorf("get chain id: %w", err)
		}
		id = new(big.Int).SetUint64(remote)
	}
	return &Deployer{
		client:    client,
		chainID:   id,
		signer:    types.NewLondonSigner(id),
		key:       privateKey,
		address:   crypto.PubkeyToAddress(privateKey.PublicKey),
		gasFeeCap: gasFeeCap,
		gasTipCap: gasTipCap,
	}, nil
}

func (d *Deployer) Address() common.Address {
	return d.address
}

func (d *Deployer) ChainID() *big.Int {
	return new(big.Int).Set(d.chainID)
}

func (d *Deployer) Close() error {
	return d.client.Close()
}

func (d *Deployer) getNonce(ctx context.Context) (uint64, error) {
	var nonce uint64
	if err := d.client.CallCtx(ctx, eth.Nonce(d.address, nil).Returns(&nonce)); err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

func (d *Deployer) sendTx(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	signedTx, err := types.SignTx(tx, d.signer, d.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	var txHash common.Hash
	if err := d.client.CallCtx(ctx, eth.SendTx(signedTx).Returns(&txHash)); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return txHash, nil
}

// EstimateGas returns the node's estimate for the message plus GasHeadroomPercent.
func (d *Deployer) EstimateGas(ctx context.Context, to *common.Address, data []byte, value *big.Int) (uint64, error) {
	msg := &w3types.Message{
		From:  d.address,
		To:    to,
		Input: data,
		Value: value,
	}
	var gas uint64
	if err := d.client.CallCtx(ctx, eth.EstimateGas(msg, nil).Returns(&gas)); err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas + gas*GasHeadroomPercent/100, nil
}

func (d *Deployer) gasFor(ctx context.Context, to *common.Address, data []byte, value *big.Int, gasLimit uint64) (uint64, error) {
	if gasLimit != 0 {
		return gasLimit, nil
	}
	return d.EstimateGas(ctx, to, data, value)
}

// DeployContract sends a contract creation tx. data is the init code including
// any ABI-encoded constructor arguments. A zero gasLimit is estimated.
func (d *Deployer) DeployContract(ctx context.Context, data []byte, value *big.Int, gasLimit uint64) (DeployResult, error) {
	gas, err := d.gasFor(ctx, nil, data, value, gasLimit)
	if err != nil {
		return DeployResult{}, err
	}

	nonce, err := d.getNonce(ctx)
	if err != nil {
		return DeployResult{}, err
	}

	contractAddr := crypto.CreateAddress(d.address, nonce)

	//  EIP-1559 only
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   d.chainID,
		Nonce:     nonce,
		GasFeeCap: d.gasFeeCap,
		GasTipCap: d.gasTipCap,
		Gas:       gas,
		Value:     orZero(value),
		Data:      data,
	})

	txHash, err := d.sendTx(ctx, tx)
	if err != nil {
		return DeployResult{}, err
	}

	return DeployResult{
		TxHash:          txHash,
		ContractAddress: contractAddr,
	}, nil
}

// SendCall sends calldata with an optional value to an existing contract.
func (d *Deployer) SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int, gasLimit uint64) (common.Hash, error) {
	gas, err := d.gasFor(ctx, &to, data, value, gasLimit)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := d.getNonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   d.chainID,
		Nonce:     nonce,
		To:        &to,
		GasFeeCap: d.gasFeeCap,
		GasTipCap: d.gasTipCap,
		Gas:       gas,
		Value:     orZero(value),
		Data:      data,
	})

	return d.sendTx(ctx, tx)
}

// Call runs eth_call from the deployer address against the latest block.
func (d *Deployer) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out []byte
	msg := &w3types.Message{From: d.address, To: &to, Input: data}
	if err := d.client.CallCtx(ctx, eth.Call(msg, nil, nil).Returns(&out)); err != nil {
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return out, nil
}

func (d *Deployer) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	var code []byte
	if err := d.client.CallCtx(ctx, eth.Code(addr, nil).Returns(&code)); err != nil {
		return nil, fmt.Errorf("get code %s: %w", addr.Hex(), err)
	}
	return code, nil
}

func (d *Deployer) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := d.client.CallCtx(ctx, eth.Balance(addr, nil).Returns(&balance)); err != nil {
		return nil, fmt.Errorf("get balance %s: %w", addr.Hex(), err)
	}
	return balance, nil
}

func (d *Deployer) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		err := d.client.CallCtx(ctx, eth.TxReceipt(txHash).Returns(&receipt))
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func MustHexDecode(hexStr string) []byte {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(hexStr), "0x"))
	if err != nil {
		panic(fmt.Sprintf("decode hex: %v", err))
	}
	return b
}
