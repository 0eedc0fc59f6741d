package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"

	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/contracts/ownership"
	"github.com/cosmo-local-credit/diamond/publish/facets"
)

type CutRequest struct {
	Diamond common.Address
	Action  diamond.FacetCutAction
	// Facet names the artifact whose ABI supplies the selectors.
	Facet string
	// FacetAddress reuses a deployed facet for add and replace. When zero
	// the facet artifact is deployed first.
	FacetAddress common.Address
	// Only narrows the selectors to these names, signatures or hex ids.
	Only    []string
	Exclude []string
	// Init and InitCalldata are passed through to diamondCut.
	Init         common.Address
	InitCalldata []byte
}

func (r CutRequest) Check() error {
	var result *multierror.Error
	if r.Diamond == (common.Address{}) {
		result = multierror.Append(result, errors.New("diamond address is required"))
	}
	if strings.TrimSpace(r.Facet) == "" {
		result = multierror.Append(result, errors.New("facet is required"))
	}
	if r.Action > diamond.Remove {
		result = multierror.Append(result, fmt.Errorf("invalid action %s", r.Action))
	}
	if r.Action == diamond.Remove && r.FacetAddress != (common.Address{}) {
		result = multierror.Append(result, errors.New("remove cuts take no facet address"))
	}
	if len(r.InitCalldata) > 0 && r.Init == (common.Address{}) {
		result = multierror.Append(result, errors.New("init calldata requires an init address"))
	}
	return result.ErrorOrNil()
}

// Cut applies a single facet cut to an existing diamond and checks the
// loupe afterwards. The sender must own the diamond.
func Cut(ctx context.Context, env Env, req CutRequest) (*CutReport, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	lg := env.logger()

	art, err := env.artifact(req.Facet)
	if err != nil {
		return nil, err
	}
	sels := facets.FromABI(art.ABI)
	if len(req.Only) > 0 {
		sels = sels.Get(req.Only...)
	}
	sels = sels.Remove(req.Exclude...)
	if len(sels) == 0 {
		return nil, fmt.Errorf("no %s selectors selected for %s", art.Name, req.Action)
	}

	if err := requireCode(ctx, env, "diamond", req.Diamond); err != nil {
		return nil, err
	}
	owner, err := readOwner(ctx, env, req.Diamond)
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}
	if sender := env.Chain.Address(); owner != sender {
		return nil, fmt.Errorf("sender %s is not the diamond owner %s", sender.Hex(), owner.Hex())
	}

	if err := checkCurrentRoutes(ctx, env, req.Diamond, req.Action, req.FacetAddress, sels); err != nil {
		return nil, err
	}

	facet := Contract{Name: art.Name}
	switch {
	case req.Action == diamond.Remove:
	case req.FacetAddress != (common.Address{}):
		if err := requireCode(ctx, env, "facet", req.FacetAddress); err != nil {
			return nil, err
		}
		facet.Address = req.FacetAddress
		facet.Reused = true
	default:
		if env.Deterministic {
			if err := ensureCreate2Factory(ctx, env); err != nil {
				return nil, err
			}
		}
		if facet, err = deployContract(ctx, env, art.Name, art.Bytecode, env.Deterministic); err != nil {
			return nil, err
		}
		if !facet.Reused {
			env.printf("%s deployed: %s", art.Name, facet.Address.Hex())
			break
		}
		env.printf("%s reused: %s", art.Name, facet.Address.Hex())
		if req.Action == diamond.Replace {
			if err := checkCurrentRoutes(ctx, env, req.Diamond, req.Action, facet.Address, sels); err != nil {
				return nil, err
			}
		}
	}

	cut := diamond.FacetCut{FacetAddress: facet.Address, Action: req.Action, FunctionSelectors: sels.IDs()}
	data, err := diamond.EncodeDiamondCut([]diamond.FacetCut{cut}, req.Init, req.InitCalldata)
	if err != nil {
		return nil, fmt.Errorf("encode diamondCut: %w", err)
	}
	txHash, err := env.Chain.SendCall(ctx, req.Diamond, data, nil, env.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("send diamondCut: %w", err)
	}
	receipt, err := waitMined(ctx, env, "diamondCut", txHash)
	if err != nil {
		return nil, err
	}
	if emitted, err := diamond.CutsFromReceipt(receipt); err != nil {
		lg.Warn("Diamond cut emitted no DiamondCut event", "tx", txHash)
	} else {
		lg.Debug("DiamondCut event", "cuts", len(emitted), "tx", txHash)
	}

	var result *multierror.Error
	for _, sel := range sels {
		got, err := loupeFacetAddress(ctx, env, req.Diamond, sel.ID)
		if err != nil {
			return nil, fmt.Errorf("read facetAddress(%s): %w", sel.Hex(), err)
		}
		if got != facet.Address {
			result = multierror.Append(result, fmt.Errorf("selector %s routes to %s, want %s", sel, got.Hex(), facet.Address.Hex()))
		}
	}
	if req.Action != diamond.Remove {
		registered, err := loupeFacetSelectors(ctx, env, req.Diamond, facet.Address)
		if err != nil {
			return nil, fmt.Errorf("read facetFunctionSelectors(%s): %w", facet.Address.Hex(), err)
		}
		listed := make(map[[4]byte]bool, len(registered))
		for _, id := range registered {
			listed[id] = true
		}
		for _, sel := range sels {
			if !listed[sel.ID] {
				result = multierror.Append(result, fmt.Errorf("selector %s is not listed for facet %s", sel, facet.Address.Hex()))
			}
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("verify cut: %w", err)
	}

	lg.Info("Applied diamond cut", "diamond", req.Diamond, "action", req.Action, "facet", art.Name, "selectors", len(sels), "tx", txHash)
	env.printf("Diamond cut: %s %d selectors of %s", req.Action, len(sels), art.Name)
	return &CutReport{
		Diamond:   req.Diamond,
		Action:    req.Action.String(),
		Facet:     facet,
		Selectors: selectorStrings(sels),
		TxHash:    txHash,
	}, nil
}

// checkCurrentRoutes rejects cuts the diamond would revert: adding a
// registered selector, or replacing and removing an unregistered one.
func checkCurrentRoutes(ctx context.Context, env Env, addr common.Address, action diamond.FacetCutAction, facetAddr common.Address, sels facets.Selectors) error {
	var result *multierror.Error
	for _, sel := range sels {
		current, err := loupeFacetAddress(ctx, env, addr, sel.ID)
		if err != nil {
			return fmt.Errorf("read facetAddress(%s): %w", sel.Hex(), err)
		}
		registered := current != (common.Address{})
		switch {
		case action == diamond.Add && registered:
			result = multierror.Append(result, fmt.Errorf("selector %s is already registered to %s", sel, current.Hex()))
		case action != diamond.Add && !registered:
			result = multierror.Append(result, fmt.Errorf("selector %s is not registered", sel))
		case action == diamond.Replace && current == facetAddr:
			result = multierror.Append(result, fmt.Errorf("selector %s is already served by %s", sel, current.Hex()))
		}
	}
	return result.ErrorOrNil()
}

func readOwner(ctx context.Context, env Env, addr common.Address) (common.Address, error) {
	input, err := ownership.EncodeOwner()
	if err != nil {
		return common.Address{}, err
	}
	output, err := env.Chain.Call(ctx, addr, input)
	if err != nil {
		return common.Address{}, err
	}
	return ownership.DecodeOwner(output)
}
