package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenHardhat(t *testing.T) {
	s, err := Open("testdata/hardhat")
	require.NoError(t, err)
	require.Equal(t, []string{
		"Diamond",
		"DiamondCutFacet",
		"DiamondInit",
		"DiamondLoupeFacet",
		"DistributorFacet",
		"IDiamondCut",
		"OwnershipFacet",
	}, s.Names())

	art, err := s.Artifact("DiamondLoupeFacet")
	require.NoError(t, err)
	require.Equal(t, "DiamondLoupeFacet", art.Name)
	require.Equal(t, "contracts/facets/DiamondLoupeFacet.sol", art.Source)
	require.Len(t, art.ABI.Methods, 5)
	require.NotEmpty(t, art.Bytecode)

	diamond, err := s.Artifact("Diamond")
	require.NoError(t, err)
	require.Len(t, diamond.ABI.Constructor.Inputs, 2)
}

func TestArtifactErrors(t *testing.T) {
	s, err := Open("testdata")
	require.NoError(t, err)

	_, err = s.Artifact("Missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Artifact("IDiamondCut")
	require.ErrorIs(t, err, ErrNoBytecode)

	_, err = s.Artifact("Linked")
	require.ErrorIs(t, err, ErrLinkingUnsupported)
}

func TestFoundryLayout(t *testing.T) {
	s, err := Open("testdata/foundry")
	require.NoError(t, err)
	art, err := s.Artifact("Counter")
	require.NoError(t, err)
	// Foundry artifacts carry no contractName, the file name is used.
	require.Equal(t, "Counter", art.Name)
	require.Contains(t, art.ABI.Methods, "setNumber")
}

func TestOpenAmbiguous(t *testing.T) {
	dir := t.TempDir()
	write := func(path, contents string) {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o644))
	}
	write("a/Token.json", `{"abi":[],"bytecode":"0x60"}`)
	write("b/Token.json", `{"abi":[],"bytecode":"0x61"}`)
	_, err := Open(dir)
	require.ErrorContains(t, err, "ambiguous artifact Token")
}

func TestOpenIdenticalDuplicates(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, sub, "Token.json"), []byte(`{"abi":[],"bytecode":"0x60"}`), 0o644))
	}
	s, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"Token"}, s.Names())
}

func TestParseRejectsMissingABI(t *testing.T) {
	_, err := Parse([]byte(`{"bytecode":"0x60"}`))
	require.ErrorContains(t, err, "missing abi")
}
