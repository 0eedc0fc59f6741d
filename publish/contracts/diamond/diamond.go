package diamond

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
)

// Contract names of the diamond and its standard facets in compiled artifacts.
const (
	Name           = "Diamond"
	CutFacetName   = "DiamondCutFacet"
	LoupeFacetName = "DiamondLoupeFacet"
)

type FacetCutAction uint8

const (
	Add FacetCutAction = iota
	Replace
	Remove
)

func (a FacetCutAction) String() string {
	switch a {
	case Add:
		return "add"
	case Replace:
		return "replace"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("FacetCutAction(%d)", uint8(a))
	}
}

func ParseFacetCutAction(s string) (FacetCutAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return Add, nil
	case "replace":
		return Replace, nil
	case "remove":
		return Remove, nil
	default:
		return 0, fmt.Errorf("invalid facet cut action %q: want add|replace|remove", s)
	}
}

// FacetCut mirrors IDiamondCut.FacetCut. Field names match the ABI tuple.
type FacetCut struct {
	FacetAddress      common.Address
	Action            FacetCutAction
	FunctionSelectors [][4]byte
}

// Args mirrors the DiamondArgs constructor tuple.
type Args struct {
	Owner             common.Address
	Init              common.Address
	InitCalldata      []byte
	Beneficiary1      common.Address
	Beneficiary2      common.Address
	BeneficiaryStake1 *big.Int
	BeneficiaryStake2 *big.Int
}

// Facet is one entry of the loupe's facets() result.
type Facet struct {
	FacetAddress      common.Address
	FunctionSelectors [][4]byte
}

type cutTuple struct {
	FacetAddress      common.Address
	Action            uint8
	FunctionSelectors [][4]byte
}

var (
	funcDiamondCut = w3.MustNewFunc(
		"diamondCut((address facetAddress,uint8 action,bytes4[] functionSelectors)[],address,bytes)", "",
	)
	funcFacets = w3.MustNewFunc(
		"facets()", "(address facetAddress,bytes4[] functionSelectors)[]",
	)
	funcFacetAddress = w3.MustNewFunc(
		"facetAddress(bytes4)", "address",
	)
	funcFacetFunctionSelectors = w3.MustNewFunc(
		"facetFunctionSelectors(address)", "bytes4[]",
	)
	eventDiamondCut = w3.MustNewEvent(
		"DiamondCut((address facetAddress,uint8 action,bytes4[] functionSelectors)[] diamondCut,address init,bytes data)",
	)
)

// EncodeDeploy appends the ABI-encoded constructor(FacetCut[], DiamondArgs)
// to the creation bytecode. The tuple layout is taken from the artifact ABI.
func EncodeDeploy(bytecode []byte, contract abi.ABI, cuts []FacetCut, args Args) ([]byte, error) {
	if len(contract.Constructor.Inputs) != 2 {
		return nil, fmt.Errorf("%s constructor takes %d arguments, want 2", Name, len(contract.Constructor.Inputs))
	}
	if args.BeneficiaryStake1 == nil || args.BeneficiaryStake2 == nil {
		return nil, errors.New("beneficiary stakes are required")
	}
	if args.InitCalldata == nil {
		args.InitCalldata = []byte{}
	}
	packed, err := contract.Pack("", toTuples(cuts), args)
	if err != nil {
		return nil, fmt.Errorf("encode %s constructor: %w", Name, err)
	}
	data := make([]byte, 0, len(bytecode)+len(packed))
	data = append(data, bytecode...)
	return append(data, packed...), nil
}

// DecodeDeployArgs reverses EncodeDeploy given the bytecode length.
func DecodeDeployArgs(contract abi.ABI, data []byte, bytecodeLen int) ([]FacetCut, Args, error) {
	if len(data) < bytecodeLen {
		return nil, Args{}, errors.New("deploy data shorter than bytecode")
	}
	var out struct {
		DiamondCut []cutTuple
		Args       Args
	}
	values, err := contract.Constructor.Inputs.Unpack(data[bytecodeLen:])
	if err != nil {
		return nil, Args{}, fmt.Errorf("decode %s constructor: %w", Name, err)
	}
	if err := contract.Constructor.Inputs.Copy(&out, values); err != nil {
		return nil, Args{}, fmt.Errorf("decode %s constructor: %w", Name, err)
	}
	return fromTuples(out.DiamondCut), out.Args, nil
}

func EncodeDiamondCut(cuts []FacetCut, initAddr common.Address, calldata []byte) ([]byte, error) {
	if calldata == nil {
		calldata = []byte{}
	}
	return funcDiamondCut.EncodeArgs(toTuples(cuts), initAddr, calldata)
}

func DecodeDiamondCut(input []byte) ([]FacetCut, common.Address, []byte, error) {
	var (
		cuts     []cutTuple
		initAddr common.Address
		calldata []byte
	)
	if err := funcDiamondCut.DecodeArgs(input, &cuts, &initAddr, &calldata); err != nil {
		return nil, common.Address{}, nil, fmt.Errorf("decode diamondCut: %w", err)
	}
	return fromTuples(cuts), initAddr, calldata, nil
}

func EncodeFacets() ([]byte, error) {
	return funcFacets.EncodeArgs()
}

func DecodeFacets(output []byte) ([]Facet, error) {
	var facets []Facet
	if err := funcFacets.DecodeReturns(output, &facets); err != nil {
		return nil, fmt.Errorf("decode facets: %w", err)
	}
	return facets, nil
}

func EncodeFacetAddress(selector [4]byte) ([]byte, error) {
	return funcFacetAddress.EncodeArgs(selector)
}

func DecodeFacetAddress(output []byte) (common.Address, error) {
	var addr common.Address
	if err := funcFacetAddress.DecodeReturns(output, &addr); err != nil {
		return common.Address{}, fmt.Errorf("decode facetAddress: %w", err)
	}
	return addr, nil
}

func EncodeFacetFunctionSelectors(facet common.Address) ([]byte, error) {
	return funcFacetFunctionSelectors.EncodeArgs(facet)
}

func DecodeFacetFunctionSelectors(output []byte) ([][4]byte, error) {
	var sels [][4]byte
	if err := funcFacetFunctionSelectors.DecodeReturns(output, &sels); err != nil {
		return nil, fmt.Errorf("decode facetFunctionSelectors: %w", err)
	}
	return sels, nil
}

// CutsFromReceipt returns the cuts of the first DiamondCut event in the receipt.
func CutsFromReceipt(receipt *types.Receipt) ([]FacetCut, error) {
	for _, log := range receipt.Logs {
		var (
			cuts     []cutTuple
			initAddr common.Address
			data     []byte
		)
		if err := eventDiamondCut.DecodeArgs(log, &cuts, &initAddr, &data); err == nil {
			return fromTuples(cuts), nil
		}
	}
	return nil, errors.New("DiamondCut event not found in receipt logs")
}

// SelectorTable flattens loupe facets into selector -> facet address.
func SelectorTable(facets []Facet) map[[4]byte]common.Address {
	table := make(map[[4]byte]common.Address)
	for _, f := range facets {
		for _, sel := range f.FunctionSelectors {
			table[sel] = f.FacetAddress
		}
	}
	return table
}

func toTuples(cuts []FacetCut) []cutTuple {
	out := make([]cutTuple, len(cuts))
	for i, c := range cuts {
		sels := c.FunctionSelectors
		if sels == nil {
			sels = [][4]byte{}
		}
		out[i] = cutTuple{FacetAddress: c.FacetAddress, Action: uint8(c.Action), FunctionSelectors: sels}
	}
	return out
}

func fromTuples(tuples []cutTuple) []FacetCut {
	out := make([]FacetCut, len(tuples))
	for i, t := range tuples {
		out[i] = FacetCut{FacetAddress: t.FacetAddress, Action: FacetCutAction(t.Action), FunctionSelectors: t.FunctionSelectors}
	}
	return out
}
