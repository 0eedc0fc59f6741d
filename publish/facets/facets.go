// Package facets extracts the function selectors a facet registers in a
// diamond and narrows them for add/replace/remove cuts.
package facets

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// InitSignature is never registered: facets may expose it for delegatecall
// initialisation only.
const InitSignature = "init(bytes)"

type Selector struct {
	Signature string
	ID        [4]byte
}

func (s Selector) Hex() string {
	return hexutil.Encode(s.ID[:])
}

func (s Selector) String() string {
	if s.Signature == "" {
		return s.Hex()
	}
	return s.Signature + " " + s.Hex()
}

func (s Selector) name() string {
	name, _, _ := strings.Cut(s.Signature, "(")
	return name
}

type Selectors []Selector

// FromABI returns the selectors of every function in the ABI except
// InitSignature, ordered by signature.
func FromABI(contract abi.ABI) Selectors {
	out := make(Selectors, 0, len(contract.Methods))
	for _, method := range contract.Methods {
		if method.Sig == InitSignature {
			continue
		}
		var id [4]byte
		copy(id[:], method.ID)
		out = append(out, Selector{Signature: method.Sig, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// FromSignature computes the selector of a canonical function signature.
func FromSignature(sig string) Selector {
	sig = strings.ReplaceAll(strings.TrimSpace(sig), " ", "")
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(sig))[:4])
	return Selector{Signature: sig, ID: id}
}

// ParseSelector accepts a 0x-prefixed 4-byte hex selector or a signature.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") {
		b, err := hexutil.Decode(s)
		if err != nil {
			return Selector{}, fmt.Errorf("parse selector %s: %w", s, err)
		}
		if len(b) != 4 {
			return Selector{}, fmt.Errorf("selector %s is %d bytes, want 4", s, len(b))
		}
		var id [4]byte
		copy(id[:], b)
		return Selector{ID: id}, nil
	}
	if !strings.Contains(s, "(") || !strings.HasSuffix(s, ")") {
		return Selector{}, fmt.Errorf("invalid function signature: %s", s)
	}
	return FromSignature(s), nil
}

func (s Selectors) matches(sel Selector, names []string) bool {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == sel.Signature || n == sel.name() || strings.EqualFold(n, sel.Hex()) {
			return true
		}
	}
	return false
}

// Remove returns the selectors that match none of names. A name is a bare
// function name, a full signature or a hex selector.
func (s Selectors) Remove(names ...string) Selectors {
	out := make(Selectors, 0, len(s))
	for _, sel := range s {
		if !s.matches(sel, names) {
			out = append(out, sel)
		}
	}
	return out
}

// Get returns only the selectors matching names.
func (s Selectors) Get(names ...string) Selectors {
	out := make(Selectors, 0, len(names))
	for _, sel := range s {
		if s.matches(sel, names) {
			out = append(out, sel)
		}
	}
	return out
}

func (s Selectors) IDs() [][4]byte {
	out := make([][4]byte, len(s))
	for i, sel := range s {
		out[i] = sel.ID
	}
	return out
}

func (s Selectors) Contains(id [4]byte) bool {
	for _, sel := range s {
		if sel.ID == id {
			return true
		}
	}
	return false
}

// Duplicate is a selector claimed by more than one facet.
type Duplicate struct {
	Selector Selector
	Facets   []string
}

func (d Duplicate) String() string {
	return fmt.Sprintf("%s in %s", d.Selector, strings.Join(d.Facets, ", "))
}

// Duplicates lists selectors registered by more than one facet, ordered by
// selector id.
func Duplicates(sets map[string]Selectors) []Duplicate {
	owners := map[[4]byte][]string{}
	sigs := map[[4]byte]Selector{}
	for facet, sels := range sets {
		for _, sel := range sels {
			owners[sel.ID] = append(owners[sel.ID], facet)
			sigs[sel.ID] = sel
		}
	}
	var out []Duplicate
	for id, names := range owners {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		out = append(out, Duplicate{Selector: sigs[id], Facets: names})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Selector.ID[:], out[j].Selector.ID[:]) < 0
	})
	return out
}
