package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lmittmann/w3"
	"github.com/stretchr/testify/require"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/contracts/distributor"
	"github.com/cosmo-local-credit/diamond/publish/facets"
)

var (
	fnFacets          = w3.MustNewFunc("facets()", "(address facetAddress,bytes4[] functionSelectors)[]")
	fnFacetAddress    = w3.MustNewFunc("facetAddress(bytes4)", "address")
	fnOwner           = w3.MustNewFunc("owner()", "address")
	fnFacetSelectors  = w3.MustNewFunc("facetFunctionSelectors(address)", "bytes4[]")
	fnTransferOwner   = w3.MustNewFunc("transferOwnership(address)", "")
	fnStake           = w3.MustNewFunc("getBeneficiary1Stake()", "uint256")
	evDiamondCut      = w3.MustNewEvent("DiamondCut((address facetAddress,uint8 action,bytes4[] functionSelectors)[] diamondCut,address init,bytes data)")
	topicOwnership    = crypto.Keccak256Hash([]byte("OwnershipTransferred(address,address)"))
	selDiamondCut     = facets.FromSignature("diamondCut((address,uint8,bytes4[])[],address,bytes)").ID
	selStake1         = facets.FromSignature("getBeneficiary1Stake()").ID
	selStake2         = facets.FromSignature("getBeneficiary2Stake()").ID
	selReceivePayment = facets.FromSignature("receiveAndDistributePayment()").ID
)

type eventCut struct {
	FacetAddress      common.Address
	Action            uint8
	FunctionSelectors [][4]byte
}

type fakeDiamond struct {
	owner  common.Address
	args   diamond.Args
	facets []diamond.Facet
}

func (d *fakeDiamond) route(sel [4]byte) common.Address {
	for _, f := range d.facets {
		for _, s := range f.FunctionSelectors {
			if s == sel {
				return f.FacetAddress
			}
		}
	}
	return common.Address{}
}

func (d *fakeDiamond) unregister(sel [4]byte) {
	out := d.facets[:0]
	for _, f := range d.facets {
		kept := make([][4]byte, 0, len(f.FunctionSelectors))
		for _, s := range f.FunctionSelectors {
			if s != sel {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out = append(out, diamond.Facet{FacetAddress: f.FacetAddress, FunctionSelectors: kept})
		}
	}
	d.facets = out
}

func (d *fakeDiamond) register(facet common.Address, sel [4]byte) {
	for i := range d.facets {
		if d.facets[i].FacetAddress == facet {
			d.facets[i].FunctionSelectors = append(d.facets[i].FunctionSelectors, sel)
			return
		}
	}
	d.facets = append(d.facets, diamond.Facet{FacetAddress: facet, FunctionSelectors: [][4]byte{sel}})
}

func (d *fakeDiamond) apply(cuts []diamond.FacetCut) error {
	for _, c := range cuts {
		for _, sel := range c.FunctionSelectors {
			current := d.route(sel)
			switch c.Action {
			case diamond.Add:
				if current != (common.Address{}) {
					return fmt.Errorf("selector %x exists", sel)
				}
				d.register(c.FacetAddress, sel)
			case diamond.Replace:
				if current == (common.Address{}) {
					return fmt.Errorf("selector %x missing", sel)
				}
				d.unregister(sel)
				d.register(c.FacetAddress, sel)
			case diamond.Remove:
				d.unregister(sel)
			}
		}
	}
	return nil
}

// fakeChain executes just enough of the diamond contracts to drive the
// pipelines: creations, diamondCut, the loupe, owner, stakes and payments.
type fakeChain struct {
	t           *testing.T
	sender      common.Address
	nonce       uint64
	diamondCode []byte
	diamondABI  abi.ABI

	code     map[common.Address][]byte
	balances map[common.Address]*big.Int
	receipts map[common.Hash]*types.Receipt
	diamonds map[common.Address]*fakeDiamond

	deploys int
	sent    int
	// revertDeploy makes the n-th creation (1-based) revert.
	revertDeploy int
	// dropSelector is left out when the diamond constructor registers cuts.
	dropSelector *[4]byte
}

func newFakeChain(t *testing.T, sender common.Address, diamondCode []byte, diamondABI abi.ABI) *fakeChain {
	return &fakeChain{
		t:           t,
		sender:      sender,
		diamondCode: diamondCode,
		diamondABI:  diamondABI,
		code:        map[common.Address][]byte{},
		balances:    map[common.Address]*big.Int{},
		receipts:    map[common.Hash]*types.Receipt{},
		diamonds:    map[common.Address]*fakeDiamond{},
	}
}

func (c *fakeChain) Address() common.Address { return c.sender }

func (c *fakeChain) nextHash() common.Hash {
	c.sent++
	return crypto.Keccak256Hash(c.sender.Bytes(), big.NewInt(int64(c.sent)).Bytes())
}

func (c *fakeChain) mine(hash common.Hash, status uint64, logs ...*types.Log) {
	c.receipts[hash] = &types.Receipt{TxHash: hash, Status: status, Logs: logs}
}

func (c *fakeChain) DeployContract(_ context.Context, data []byte, _ *big.Int, _ uint64) (publish.DeployResult, error) {
	addr := crypto.CreateAddress(c.sender, c.nonce)
	c.nonce++
	c.deploys++
	hash := c.nextHash()
	result := publish.DeployResult{TxHash: hash, ContractAddress: addr}
	if c.deploys == c.revertDeploy {
		c.mine(hash, types.ReceiptStatusFailed)
		return result, nil
	}

	if len(data) > len(c.diamondCode) && bytes.HasPrefix(data, c.diamondCode) {
		cuts, args, err := diamond.DecodeDeployArgs(c.diamondABI, data, len(c.diamondCode))
		if err != nil {
			return publish.DeployResult{}, err
		}
		d := &fakeDiamond{owner: args.Owner, args: args}
		if c.dropSelector != nil {
			for i := range cuts {
				kept := cuts[i].FunctionSelectors[:0]
				for _, sel := range cuts[i].FunctionSelectors {
					if sel != *c.dropSelector {
						kept = append(kept, sel)
					}
				}
				cuts[i].FunctionSelectors = kept
			}
		}
		if err := d.apply(cuts); err != nil {
			return publish.DeployResult{}, err
		}
		c.diamonds[addr] = d
		c.code[addr] = []byte{0x60, 0x80}
		c.mine(hash, types.ReceiptStatusSuccessful, ownershipLog(common.Address{}, args.Owner), c.cutLog(cuts))
		return result, nil
	}

	c.code[addr] = data
	c.mine(hash, types.ReceiptStatusSuccessful)
	return result, nil
}

func (c *fakeChain) DeployDeterministicViaArachnid(_ context.Context, salt common.Hash, initCode []byte, _ uint64) (publish.DeployResult, error) {
	c.nonce++
	c.deploys++
	addr := publish.PredictCreate2Address(publish.ArachnidCreate2Factory, salt, initCode)
	hash := c.nextHash()
	c.code[addr] = initCode
	c.mine(hash, types.ReceiptStatusSuccessful)
	return publish.DeployResult{TxHash: hash, ContractAddress: addr}, nil
}

func (c *fakeChain) SendCall(_ context.Context, to common.Address, data []byte, value *big.Int, _ uint64) (common.Hash, error) {
	c.nonce++
	hash := c.nextHash()
	d, ok := c.diamonds[to]
	if !ok || len(data) < 4 {
		c.mine(hash, types.ReceiptStatusFailed)
		return hash, nil
	}

	var sel [4]byte
	copy(sel[:], data)
	switch sel {
	case selDiamondCut:
		cuts, _, _, err := diamond.DecodeDiamondCut(data)
		require.NoError(c.t, err)
		if err := d.apply(cuts); err != nil {
			c.mine(hash, types.ReceiptStatusFailed)
			return hash, nil
		}
		c.mine(hash, types.ReceiptStatusSuccessful, c.cutLog(cuts))
	case fnTransferOwner.Selector:
		var next common.Address
		require.NoError(c.t, fnTransferOwner.DecodeArgs(data, &next))
		if d.owner != c.sender {
			c.mine(hash, types.ReceiptStatusFailed)
			return hash, nil
		}
		previous := d.owner
		d.owner = next
		c.mine(hash, types.ReceiptStatusSuccessful, ownershipLog(previous, next))
	case selReceivePayment:
		share1, share2 := distributor.ExpectedShares(value, d.args.BeneficiaryStake1, d.args.BeneficiaryStake2)
		c.credit(d.args.Beneficiary1, share1)
		c.credit(d.args.Beneficiary2, share2)
		c.mine(hash, types.ReceiptStatusSuccessful)
	default:
		c.mine(hash, types.ReceiptStatusFailed)
	}
	return hash, nil
}

func (c *fakeChain) credit(addr common.Address, v *big.Int) {
	bal := c.balances[addr]
	if bal == nil {
		bal = new(big.Int)
	}
	c.balances[addr] = new(big.Int).Add(bal, v)
}

func (c *fakeChain) WaitForReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	r, ok := c.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("unknown tx %s", hash.Hex())
	}
	return r, nil
}

func (c *fakeChain) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	d, ok := c.diamonds[to]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	var sel [4]byte
	copy(sel[:], data)
	loupe := sel == fnFacets.Selector || sel == fnFacetAddress.Selector || sel == fnFacetSelectors.Selector
	if !loupe && d.route(sel) == (common.Address{}) {
		return nil, errors.New("diamond: function does not exist")
	}
	switch sel {
	case fnFacets.Selector:
		return fnFacets.Returns.Pack(d.facets)
	case fnFacetAddress.Selector:
		var arg [4]byte
		copy(arg[:], data[4:8])
		return fnFacetAddress.Returns.Pack(d.route(arg))
	case fnFacetSelectors.Selector:
		var facet common.Address
		require.NoError(c.t, fnFacetSelectors.DecodeArgs(data, &facet))
		sels := [][4]byte{}
		for _, f := range d.facets {
			if f.FacetAddress == facet {
				sels = f.FunctionSelectors
			}
		}
		return fnFacetSelectors.Returns.Pack(sels)
	case fnOwner.Selector:
		return fnOwner.Returns.Pack(d.owner)
	case selStake1:
		return fnStake.Returns.Pack(d.args.BeneficiaryStake1)
	case selStake2:
		return fnStake.Returns.Pack(d.args.BeneficiaryStake2)
	}
	return nil, errors.New("execution reverted")
}

func (c *fakeChain) CodeAt(_ context.Context, addr common.Address) ([]byte, error) {
	return c.code[addr], nil
}

func (c *fakeChain) BalanceAt(_ context.Context, addr common.Address) (*big.Int, error) {
	if bal := c.balances[addr]; bal != nil {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (c *fakeChain) cutLog(cuts []diamond.FacetCut) *types.Log {
	tuples := make([]eventCut, len(cuts))
	for i, cut := range cuts {
		tuples[i] = eventCut{FacetAddress: cut.FacetAddress, Action: uint8(cut.Action), FunctionSelectors: cut.FunctionSelectors}
	}
	data, err := evDiamondCut.Args.NonIndexed().Pack(tuples, common.Address{}, []byte{})
	require.NoError(c.t, err)
	return &types.Log{Topics: []common.Hash{evDiamondCut.Topic0}, Data: data}
}

func ownershipLog(previous, next common.Address) *types.Log {
	return &types.Log{Topics: []common.Hash{
		topicOwnership,
		common.BytesToHash(previous.Bytes()),
		common.BytesToHash(next.Bytes()),
	}}
}
