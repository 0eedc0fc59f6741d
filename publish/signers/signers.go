// Package signers resolves the accounts a deployment signs with: HD accounts
// from a mnemonic in the Hardhat layout, or a raw private key.
package signers

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/base/go-bip39"
	hdwallet "github.com/ethereum-optimism/go-ethereum-hdwallet"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TestMnemonic is the well-known Hardhat/Anvil development mnemonic.
const TestMnemonic = "test test test test test test test test test test test junk"

type Account struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

func HDPath(index int) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

// FromMnemonic derives the first n accounts of the mnemonic.
func FromMnemonic(mnemonic string, n int) ([]Account, error) {
	return FromMnemonicWithPassphrase(mnemonic, "", n)
}

func FromMnemonicWithPassphrase(mnemonic, passphrase string, n int) ([]Account, error) {
	if n <= 0 {
		return nil, errors.New("account count must be positive")
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	w, err := hdwallet.NewFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	out := make([]Account, n)
	for i := range out {
		account := accounts.Account{URL: accounts.URL{Path: HDPath(i)}}
		key, err := w.PrivateKey(account)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key of path %s: %w", account.URL.Path, err)
		}
		out[i] = Account{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
	}
	return out, nil
}

func FromPrivateKey(v string) (Account, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
	key, err := crypto.HexToECDSA(v)
	if err != nil {
		return Account{}, fmt.Errorf("parse private key: %w", err)
	}
	return Account{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}
