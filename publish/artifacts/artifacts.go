// Package artifacts reads compiled contract artifacts produced by Hardhat
// (artifacts/) or Foundry (out/).
package artifacts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrNotFound           = errors.New("artifact not found")
	ErrLinkingUnsupported = errors.New("library linking is not supported")
	ErrNoBytecode         = errors.New("artifact has no bytecode")
)

type Artifact struct {
	Name     string
	Source   string
	ABI      abi.ABI
	Bytecode []byte
}

// rawArtifact covers both layouts: Hardhat stores bytecode as a hex string,
// Foundry as {"object": ..., "linkReferences": ...}.
type rawArtifact struct {
	ContractName   string          `json:"contractName"`
	SourceName     string          `json:"sourceName"`
	ABI            json.RawMessage `json:"abi"`
	Bytecode       json.RawMessage `json:"bytecode"`
	LinkReferences json.RawMessage `json:"linkReferences"`
}

type foundryBytecode struct {
	Object         string          `json:"object"`
	LinkReferences json.RawMessage `json:"linkReferences"`
}

type Store struct {
	paths map[string]string
}

// Open indexes every <Name>.json under dir. Two different files for one
// contract name make the name ambiguous and fail the open.
func Open(dir string) (*Store, error) {
	s := &Store{paths: map[string]string{}}
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		base := entry.Name()
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".dbg.json") {
			return nil
		}
		name := strings.TrimSuffix(base, ".json")
		if prev, ok := s.paths[name]; ok {
			same, err := sameContents(prev, path)
			if err != nil {
				return err
			}
			if !same {
				return fmt.Errorf("ambiguous artifact %s: %s and %s", name, prev, path)
			}
			return nil
		}
		s.paths[name] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open artifacts %s: %w", dir, err)
	}
	return s, nil
}

func (s *Store) Names() []string {
	names := make([]string, 0, len(s.paths))
	for name := range s.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Artifact(name string) (*Artifact, error) {
	path, ok := s.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	art, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", name, err)
	}
	if art.Name == "" {
		art.Name = name
	}
	return art, nil
}

// Parse decodes a single artifact file.
func Parse(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if len(raw.ABI) == 0 {
		return nil, errors.New("missing abi")
	}
	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}

	object, links, err := bytecodeField(raw)
	if err != nil {
		return nil, err
	}
	if hasLinks(links) || strings.Contains(object, "__$") {
		return nil, ErrLinkingUnsupported
	}
	code, err := hexutil.Decode(normalizeHex(object))
	if err != nil {
		return nil, fmt.Errorf("bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, ErrNoBytecode
	}
	return &Artifact{
		Name:     raw.ContractName,
		Source:   raw.SourceName,
		ABI:      parsed,
		Bytecode: code,
	}, nil
}

func bytecodeField(raw rawArtifact) (string, json.RawMessage, error) {
	if len(raw.Bytecode) == 0 {
		return "", nil, ErrNoBytecode
	}
	var object string
	if err := json.Unmarshal(raw.Bytecode, &object); err == nil {
		return object, raw.LinkReferences, nil
	}
	var fb foundryBytecode
	if err := json.Unmarshal(raw.Bytecode, &fb); err != nil {
		return "", nil, fmt.Errorf("bytecode: %w", err)
	}
	return fb.Object, fb.LinkReferences, nil
}

func hasLinks(links json.RawMessage) bool {
	if len(links) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(links, &m); err != nil {
		return false
	}
	return len(m) > 0
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}

func sameContents(a, b string) (bool, error) {
	x, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	y, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}
