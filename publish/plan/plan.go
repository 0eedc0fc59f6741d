// Package plan describes what a diamond deployment installs and how it is
// configured. Plans load from TOML and every field can be overridden from
// command-line flags.
package plan

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamondinit"
	"github.com/cosmo-local-credit/diamond/publish/contracts/distributor"
	"github.com/cosmo-local-credit/diamond/publish/contracts/ownership"
)

const (
	DefaultDiamond = diamond.Name
	DefaultInit    = diamondinit.Name
	DefaultPayment = "10"
)

type Facet struct {
	Name    string   `toml:"name"`
	Exclude []string `toml:"exclude,omitempty"`
}

type Plan struct {
	Diamond           string  `toml:"diamond"`
	Init              string  `toml:"init"`
	Facets            []Facet `toml:"facets"`
	Owner             string  `toml:"owner,omitempty"`
	Beneficiary1      string  `toml:"beneficiary1,omitempty"`
	Beneficiary2      string  `toml:"beneficiary2,omitempty"`
	BeneficiaryStake1 uint64  `toml:"beneficiary_stake1"`
	BeneficiaryStake2 uint64  `toml:"beneficiary_stake2"`
	Payment           string  `toml:"payment"`
	Verify            bool    `toml:"verify"`
}

// Resolved is a checked plan with every address filled in.
type Resolved struct {
	Diamond           string
	Init              string
	Facets            []Facet
	Owner             common.Address
	Beneficiary1      common.Address
	Beneficiary2      common.Address
	BeneficiaryStake1 *big.Int
	BeneficiaryStake2 *big.Int
	Payment           *big.Int
	Verify            bool
}

func DefaultFacets() []Facet {
	return []Facet{
		{Name: diamond.CutFacetName},
		{Name: diamond.LoupeFacetName},
		{Name: ownership.FacetName},
		{Name: distributor.FacetName},
	}
}

func Default() Plan {
	return Plan{
		Diamond:           DefaultDiamond,
		Init:              DefaultInit,
		Facets:            DefaultFacets(),
		BeneficiaryStake1: 70,
		BeneficiaryStake2: 30,
		Payment:           DefaultPayment,
		Verify:            true,
	}
}

// Load decodes a TOML plan over Default. Unknown keys are rejected.
func Load(path string) (Plan, error) {
	p := Default()
	p.Facets = nil
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Plan{}, fmt.Errorf("decode plan %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Plan{}, fmt.Errorf("plan %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if len(p.Facets) == 0 {
		p.Facets = DefaultFacets()
	}
	return p, nil
}

func (p Plan) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Write encodes the plan as TOML into path.
func (p Plan) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (p Plan) FacetNames() []string {
	names := make([]string, len(p.Facets))
	for i, f := range p.Facets {
		names[i] = f.Name
	}
	return names
}

// Check reports every problem with the plan at once.
func (p Plan) Check() error {
	var result *multierror.Error
	if strings.TrimSpace(p.Diamond) == "" {
		result = multierror.Append(result, errors.New("diamond contract name is required"))
	}
	if strings.TrimSpace(p.Init) == "" {
		result = multierror.Append(result, errors.New("init contract name is required"))
	}
	if len(p.Facets) == 0 {
		result = multierror.Append(result, errors.New("at least one facet is required"))
	}
	seen := map[string]bool{}
	for i, f := range p.Facets {
		name := strings.TrimSpace(f.Name)
		switch {
		case name == "":
			result = multierror.Append(result, fmt.Errorf("facet[%d]: name is required", i))
		case seen[name]:
			result = multierror.Append(result, fmt.Errorf("facet[%d]: duplicate facet %s", i, name))
		}
		seen[name] = true
	}
	for _, field := range []struct{ name, value string }{
		{"owner", p.Owner},
		{"beneficiary1", p.Beneficiary1},
		{"beneficiary2", p.Beneficiary2},
	} {
		if field.value != "" && !common.IsHexAddress(field.value) {
			result = multierror.Append(result, fmt.Errorf("%s: invalid address: %s", field.name, field.value))
		}
	}
	if p.Beneficiary1 != "" && strings.EqualFold(p.Beneficiary1, p.Beneficiary2) {
		result = multierror.Append(result, errors.New("beneficiary1 and beneficiary2 must differ"))
	}
	if p.BeneficiaryStake1 > distributor.StakeDenominator || p.BeneficiaryStake2 > distributor.StakeDenominator ||
		p.BeneficiaryStake1+p.BeneficiaryStake2 != distributor.StakeDenominator {
		result = multierror.Append(result, fmt.Errorf("beneficiary stakes must add up to %d, got %d + %d",
			distributor.StakeDenominator, p.BeneficiaryStake1, p.BeneficiaryStake2))
	}
	if p.Payment != "" {
		if _, err := publish.ParseEther(p.Payment); err != nil {
			result = multierror.Append(result, fmt.Errorf("payment: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// Resolve checks the plan and fills empty addresses: the owner defaults to
// sender and the beneficiaries to accounts[0] and accounts[1].
func (p Plan) Resolve(sender common.Address, accounts []common.Address) (Resolved, error) {
	if err := p.Check(); err != nil {
		return Resolved{}, err
	}
	pick := func(field, value string, idx int) (common.Address, error) {
		if value != "" {
			return common.HexToAddress(value), nil
		}
		if idx < len(accounts) {
			return accounts[idx], nil
		}
		return common.Address{}, fmt.Errorf("%s is required when no mnemonic account %d is available", field, idx+1)
	}

	owner := sender
	if p.Owner != "" {
		owner = common.HexToAddress(p.Owner)
	}
	b1, err := pick("beneficiary1", p.Beneficiary1, 0)
	if err != nil {
		return Resolved{}, err
	}
	b2, err := pick("beneficiary2", p.Beneficiary2, 1)
	if err != nil {
		return Resolved{}, err
	}
	if b1 == b2 {
		return Resolved{}, errors.New("beneficiary1 and beneficiary2 must differ")
	}

	payment := new(big.Int)
	if p.Payment != "" {
		payment, _ = publish.ParseEther(p.Payment)
	}
	facets := make([]Facet, len(p.Facets))
	for i, f := range p.Facets {
		facets[i] = Facet{Name: strings.TrimSpace(f.Name), Exclude: f.Exclude}
	}
	return Resolved{
		Diamond:           strings.TrimSpace(p.Diamond),
		Init:              strings.TrimSpace(p.Init),
		Facets:            facets,
		Owner:             owner,
		Beneficiary1:      b1,
		Beneficiary2:      b2,
		BeneficiaryStake1: new(big.Int).SetUint64(p.BeneficiaryStake1),
		BeneficiaryStake2: new(big.Int).SetUint64(p.BeneficiaryStake2),
		Payment:           payment,
		Verify:            p.Verify,
	}, nil
}
