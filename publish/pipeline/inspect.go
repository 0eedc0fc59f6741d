package pipeline

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/artifacts"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/contracts/distributor"
	"github.com/cosmo-local-credit/diamond/publish/facets"
)

var (
	ownerSelector  = facets.FromSignature("owner()").ID
	stake1Selector = facets.FromSignature("getBeneficiary1Stake()").ID
	stake2Selector = facets.FromSignature("getBeneficiary2Stake()").ID
)

// Inspect reads the diamond's facets through the loupe, plus the owner and
// stakes when the diamond routes those selectors, and the balances of the
// given beneficiaries. Facets are labelled with the first artifact (by
// name) whose ABI covers all of their selectors.
func Inspect(ctx context.Context, env Env, addr common.Address, beneficiaries ...common.Address) (*Inspection, error) {
	if err := requireCode(ctx, env, "diamond", addr); err != nil {
		return nil, err
	}
	loupe, err := loupeFacets(ctx, env, addr)
	if err != nil {
		return nil, fmt.Errorf("read facets: %w", err)
	}
	table := diamond.SelectorTable(loupe)
	catalog := newCatalog(env.Artifacts)

	in := &Inspection{Diamond: addr}
	for _, f := range loupe {
		sels := make([]string, len(f.FunctionSelectors))
		for i, id := range f.FunctionSelectors {
			sels[i] = catalog.describe(id)
		}
		in.Facets = append(in.Facets, InspectedFacet{
			Address:   f.FacetAddress,
			Name:      catalog.name(f.FunctionSelectors),
			Selectors: sels,
		})
	}

	if _, ok := table[ownerSelector]; ok {
		owner, err := readOwner(ctx, env, addr)
		if err != nil {
			return nil, fmt.Errorf("read owner: %w", err)
		}
		in.Owner = &owner
	}
	_, has1 := table[stake1Selector]
	_, has2 := table[stake2Selector]
	if has1 && has2 {
		if in.Stake1, err = readStake(ctx, env, addr, distributor.EncodeBeneficiary1Stake); err != nil {
			return nil, fmt.Errorf("read stake1: %w", err)
		}
		if in.Stake2, err = readStake(ctx, env, addr, distributor.EncodeBeneficiary2Stake); err != nil {
			return nil, fmt.Errorf("read stake2: %w", err)
		}
	}

	for _, b := range beneficiaries {
		balance, err := env.Chain.BalanceAt(ctx, b)
		if err != nil {
			return nil, err
		}
		in.Beneficiaries = append(in.Beneficiaries, Balance{Address: b, Balance: publish.FormatEther(balance)})
	}
	return in, nil
}

type catalogEntry struct {
	name      string
	selectors facets.Selectors
}

// catalog resolves selector ids back to signatures and facet names using
// whatever artifacts are loaded.
type catalog struct {
	entries    []catalogEntry
	signatures map[[4]byte]string
}

func newCatalog(store *artifacts.Store) *catalog {
	c := &catalog{signatures: map[[4]byte]string{}}
	if store == nil {
		return c
	}
	for _, name := range store.Names() {
		art, err := store.Artifact(name)
		if err != nil {
			continue
		}
		sels := facets.FromABI(art.ABI)
		if len(sels) == 0 {
			continue
		}
		for _, s := range sels {
			if _, ok := c.signatures[s.ID]; !ok {
				c.signatures[s.ID] = s.Signature
			}
		}
		c.entries = append(c.entries, catalogEntry{name: name, selectors: sels})
	}
	return c
}

func (c *catalog) describe(id [4]byte) string {
	return facets.Selector{Signature: c.signatures[id], ID: id}.String()
}

func (c *catalog) name(ids [][4]byte) string {
	if len(ids) == 0 {
		return ""
	}
	for _, e := range c.entries {
		covered := true
		for _, id := range ids {
			if !e.selectors.Contains(id) {
				covered = false
				break
			}
		}
		if covered {
			return e.name
		}
	}
	return ""
}
