package facets

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

const loupeABI = `[
  {"type":"function","name":"facets","inputs":[],"outputs":[{"name":"facets_","type":"tuple[]","components":[{"name":"facetAddress","type":"address"},{"name":"functionSelectors","type":"bytes4[]"}]}],"stateMutability":"view"},
  {"type":"function","name":"facetAddress","inputs":[{"name":"_functionSelector","type":"bytes4"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"view"},
  {"type":"function","name":"facetAddresses","inputs":[],"outputs":[{"name":"","type":"address[]"}],"stateMutability":"view"},
  {"type":"function","name":"facetFunctionSelectors","inputs":[{"name":"_facet","type":"address"}],"outputs":[{"name":"","type":"bytes4[]"}],"stateMutability":"view"},
  {"type":"function","name":"supportsInterface","inputs":[{"name":"_interfaceId","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"view"},
  {"type":"function","name":"init","inputs":[{"name":"_data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"}
]`

func parse(t *testing.T, js string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(js))
	require.NoError(t, err)
	return parsed
}

func TestFromABI(t *testing.T) {
	sels := FromABI(parse(t, loupeABI))
	got := make([]string, len(sels))
	for i, s := range sels {
		got[i] = s.Hex()
	}
	require.Equal(t, []string{
		"0xcdffacc6", // facetAddress(bytes4)
		"0x52ef6b2c", // facetAddresses()
		"0xadfca15e", // facetFunctionSelectors(address)
		"0x7a0ed627", // facets()
		"0x01ffc9a7", // supportsInterface(bytes4)
	}, got)
	require.False(t, sels.Contains(FromSignature(InitSignature).ID))
}

func TestRemoveAndGet(t *testing.T) {
	sels := FromABI(parse(t, loupeABI))

	removed := sels.Remove("supportsInterface", "facets()")
	require.Len(t, removed, 3)
	require.False(t, removed.Contains(FromSignature("supportsInterface(bytes4)").ID))
	require.False(t, removed.Contains(FromSignature("facets()").ID))

	got := sels.Get("facetAddress", "0x7A0ED627")
	require.Len(t, got, 2)
	require.Equal(t, "facetAddress(bytes4)", got[0].Signature)
	require.Equal(t, "facets()", got[1].Signature)

	require.Len(t, sels, 5, "narrowing must not mutate the receiver")
}

func TestParseSelector(t *testing.T) {
	s, err := ParseSelector("0x8da5cb5b")
	require.NoError(t, err)
	require.Equal(t, FromSignature("owner()").ID, s.ID)

	s, err = ParseSelector("transferOwnership(address)")
	require.NoError(t, err)
	require.Equal(t, "0xf2fde38b", s.Hex())

	for _, bad := range []string{"0x1234", "0xzz", "owner"} {
		_, err := ParseSelector(bad)
		require.Error(t, err, bad)
	}
}

func TestDuplicates(t *testing.T) {
	owner := FromSignature("owner()")
	sets := map[string]Selectors{
		"OwnershipFacet":    {owner, FromSignature("transferOwnership(address)")},
		"DistributorFacet":  {owner, FromSignature("getBeneficiary1Stake()")},
		"DiamondLoupeFacet": {FromSignature("facets()")},
	}
	dups := Duplicates(sets)
	require.Len(t, dups, 1)
	require.Equal(t, owner.ID, dups[0].Selector.ID)
	require.Equal(t, []string{"DistributorFacet", "OwnershipFacet"}, dups[0].Facets)

	delete(sets, "DistributorFacet")
	require.Empty(t, Duplicates(sets))
}
