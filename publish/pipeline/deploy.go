package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-multierror"

	"github.com/cosmo-local-credit/diamond/publish/artifacts"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamondinit"
	"github.com/cosmo-local-credit/diamond/publish/contracts/ownership"
	"github.com/cosmo-local-credit/diamond/publish/facets"
	"github.com/cosmo-local-credit/diamond/publish/plan"
)

type facetBuild struct {
	art       *artifacts.Artifact
	selectors facets.Selectors
}

// Deploy deploys the init contract and every facet, then the diamond with
// one Add cut per facet, and finally sends the validation payment.
// All artifacts are resolved and the selector sets checked for clashes
// before the first transaction.
func Deploy(ctx context.Context, env Env, p plan.Resolved) (*Report, error) {
	lg := env.logger()

	initArt, err := env.artifact(p.Init)
	if err != nil {
		return nil, err
	}
	initCalldata, err := diamondinit.EncodeInit(initArt.ABI)
	if err != nil {
		return nil, fmt.Errorf("encode %s init: %w", initArt.Name, err)
	}
	diamondArt, err := env.artifact(p.Diamond)
	if err != nil {
		return nil, err
	}
	builds, err := prepareFacets(env, p.Facets)
	if err != nil {
		return nil, err
	}
	if env.Deterministic {
		if err := ensureCreate2Factory(ctx, env); err != nil {
			return nil, err
		}
	}

	report := &Report{Owner: p.Owner}
	report.Init, err = deployContract(ctx, env, initArt.Name, initArt.Bytecode, env.Deterministic)
	if err != nil {
		return nil, err
	}
	env.printf("%s deployed: %s", initArt.Name, report.Init.Address.Hex())

	env.printf("")
	env.printf("Deploying facets")
	cuts := make([]diamond.FacetCut, 0, len(builds))
	for _, b := range builds {
		c, err := deployContract(ctx, env, b.art.Name, b.art.Bytecode, env.Deterministic)
		if err != nil {
			return nil, err
		}
		env.printf("%s deployed: %s", b.art.Name, c.Address.Hex())
		cuts = append(cuts, diamond.FacetCut{
			FacetAddress:      c.Address,
			Action:            diamond.Add,
			FunctionSelectors: b.selectors.IDs(),
		})
		report.Facets = append(report.Facets, DeployedFacet{Contract: c, Selectors: selectorStrings(b.selectors)})
	}

	args := diamond.Args{
		Owner:             p.Owner,
		Init:              report.Init.Address,
		InitCalldata:      initCalldata,
		Beneficiary1:      p.Beneficiary1,
		Beneficiary2:      p.Beneficiary2,
		BeneficiaryStake1: p.BeneficiaryStake1,
		BeneficiaryStake2: p.BeneficiaryStake2,
	}
	deployData, err := diamond.EncodeDeploy(diamondArt.Bytecode, diamondArt.ABI, cuts, args)
	if err != nil {
		return nil, err
	}
	env.printf("")
	result, err := env.Chain.DeployContract(ctx, deployData, nil, env.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", diamondArt.Name, err)
	}
	receipt, err := waitMined(ctx, env, diamondArt.Name+" deployment", result.TxHash)
	if err != nil {
		return nil, err
	}
	report.Diamond = Contract{Name: diamondArt.Name, Address: result.ContractAddress, TxHash: result.TxHash}
	lg.Info("Deployed diamond", "address", result.ContractAddress, "tx", result.TxHash, "facets", len(cuts))
	env.printf("Diamond deployed: %s", result.ContractAddress.Hex())

	if p.Verify {
		if err := verifyDeployment(ctx, env, result.ContractAddress, p.Owner, cuts, receipt); err != nil {
			return nil, fmt.Errorf("verify diamond %s: %w", result.ContractAddress.Hex(), err)
		}
		report.Verified = true
		lg.Info("Verified diamond wiring", "address", result.ContractAddress)
	}

	report.Payment, err = Distribute(ctx, env, result.ContractAddress, p.Payment, p.Beneficiary1, p.Beneficiary2)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func prepareFacets(env Env, list []plan.Facet) ([]facetBuild, error) {
	builds := make([]facetBuild, 0, len(list))
	sets := make(map[string]facets.Selectors, len(list))
	for _, f := range list {
		art, err := env.artifact(f.Name)
		if err != nil {
			return nil, err
		}
		sels := facets.FromABI(art.ABI).Remove(f.Exclude...)
		if len(sels) == 0 {
			return nil, fmt.Errorf("facet %s has no selectors to register", art.Name)
		}
		builds = append(builds, facetBuild{art: art, selectors: sels})
		sets[art.Name] = sels
	}
	if dups := facets.Duplicates(sets); len(dups) > 0 {
		clashes := make([]string, len(dups))
		for i, d := range dups {
			clashes[i] = d.String()
		}
		return nil, fmt.Errorf("selectors provided by more than one facet: %s", strings.Join(clashes, "; "))
	}
	return builds, nil
}

// verifyDeployment checks the diamond has code, the constructor emitted the
// expected owner and the loupe routes every cut selector to its facet.
func verifyDeployment(ctx context.Context, env Env, addr, owner common.Address, cuts []diamond.FacetCut, receipt *types.Receipt) error {
	if err := requireCode(ctx, env, "diamond", addr); err != nil {
		return err
	}

	var result *multierror.Error
	got, err := ownership.OwnerFromReceipt(receipt)
	switch {
	case err != nil:
		result = multierror.Append(result, err)
	case got != owner:
		result = multierror.Append(result, fmt.Errorf("owner is %s, want %s", got.Hex(), owner.Hex()))
	}

	loupe, err := loupeFacets(ctx, env, addr)
	if err != nil {
		return multierror.Append(result, fmt.Errorf("read facets: %w", err))
	}
	table := diamond.SelectorTable(loupe)
	for _, cut := range cuts {
		for _, sel := range cut.FunctionSelectors {
			facet, ok := table[sel]
			switch {
			case !ok:
				result = multierror.Append(result, fmt.Errorf("selector %s is not registered", hexSelector(sel)))
			case facet != cut.FacetAddress:
				result = multierror.Append(result, fmt.Errorf("selector %s routes to %s, want %s", hexSelector(sel), facet.Hex(), cut.FacetAddress.Hex()))
			}
		}
	}
	return result.ErrorOrNil()
}

func selectorStrings(sels facets.Selectors) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = s.String()
	}
	return out
}

func hexSelector(id [4]byte) string {
	return facets.Selector{ID: id}.Hex()
}
