package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
)

type Contract struct {
	Name    string         `json:"name"`
	Address common.Address `json:"address"`
	TxHash  common.Hash    `json:"tx_hash"`
	Reused  bool           `json:"reused,omitempty"`
}

type DeployedFacet struct {
	Contract
	Selectors []string `json:"selectors"`
}

type Beneficiary struct {
	Address common.Address `json:"address"`
	Stake   *big.Int       `json:"stake"`
	// Expected and Received are in wei.
	Expected *big.Int `json:"expected"`
	Received *big.Int `json:"received"`
	Balance  string   `json:"balance"`
}

type Payment struct {
	TxHash        common.Hash   `json:"tx_hash"`
	Value         string        `json:"value"`
	Beneficiaries []Beneficiary `json:"beneficiaries"`
}

type Report struct {
	Diamond  Contract        `json:"diamond"`
	Init     Contract        `json:"init"`
	Facets   []DeployedFacet `json:"facets"`
	Owner    common.Address  `json:"owner"`
	Verified bool            `json:"verified"`
	Payment  *Payment        `json:"payment,omitempty"`
}

type CutReport struct {
	Diamond   common.Address `json:"diamond"`
	Action    string         `json:"action"`
	Facet     Contract       `json:"facet"`
	Selectors []string       `json:"selectors"`
	TxHash    common.Hash    `json:"tx_hash"`
}

type OwnershipTransfer struct {
	Diamond       common.Address `json:"diamond"`
	PreviousOwner common.Address `json:"previous_owner"`
	NewOwner      common.Address `json:"new_owner"`
	TxHash        common.Hash    `json:"tx_hash"`
}

type InspectedFacet struct {
	Address   common.Address `json:"address"`
	Name      string         `json:"name,omitempty"`
	Selectors []string       `json:"selectors"`
}

type Balance struct {
	Address common.Address `json:"address"`
	Balance string         `json:"balance"`
}

type Inspection struct {
	Diamond       common.Address   `json:"diamond"`
	Owner         *common.Address  `json:"owner,omitempty"`
	Stake1        *big.Int         `json:"stake1,omitempty"`
	Stake2        *big.Int         `json:"stake2,omitempty"`
	Facets        []InspectedFacet `json:"facets"`
	Beneficiaries []Balance        `json:"beneficiaries,omitempty"`
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(blob))
	return err
}

// RenderInspection prints the summary lines followed by one table row per
// registered selector.
func RenderInspection(w io.Writer, in *Inspection) {
	fmt.Fprintf(w, "Diamond: %s\n", in.Diamond.Hex())
	if in.Owner != nil {
		fmt.Fprintf(w, "Owner: %s\n", in.Owner.Hex())
	}
	if in.Stake1 != nil && in.Stake2 != nil {
		fmt.Fprintf(w, "Stake1 is %s\n", in.Stake1)
		fmt.Fprintf(w, "Stake2 is %s\n", in.Stake2)
	}
	for i, b := range in.Beneficiaries {
		fmt.Fprintf(w, "Partner%d %s balance is %s\n", i+1, b.Address.Hex(), b.Balance)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Facet", "Address", "Selector"})
	table.SetAutoWrapText(false)
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	for _, f := range in.Facets {
		name := f.Name
		if name == "" {
			name = "?"
		}
		if len(f.Selectors) == 0 {
			table.Append([]string{name, f.Address.Hex(), ""})
		}
		for _, sel := range f.Selectors {
			table.Append([]string{name, f.Address.Hex(), sel})
		}
	}
	table.Render()
}
