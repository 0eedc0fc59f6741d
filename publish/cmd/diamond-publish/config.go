package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/cosmo-local-credit/diamond/publish/signers"
)

// mnemonicAccounts is the sender plus the two default beneficiaries.
const mnemonicAccounts = 3

type Config struct {
	RPCURL        string
	ChainID       int64
	PrivateKey    string
	Mnemonic      string
	PublicAddress string
	Artifacts     string
	GasFeeCap     int64
	GasTipCap     int64
	GasLimit      uint64
	Timeout       time.Duration
	Deterministic bool
	JSON          bool
}

func ReadConfig(cliCtx *cli.Context) Config {
	return Config{
		RPCURL:        strings.TrimSpace(cliCtx.String(RPCURLFlagName)),
		ChainID:       cliCtx.Int64(ChainIDFlagName),
		PrivateKey:    strings.TrimSpace(cliCtx.String(PrivateKeyFlagName)),
		Mnemonic:      strings.TrimSpace(cliCtx.String(MnemonicFlagName)),
		PublicAddress: strings.TrimSpace(cliCtx.String(PublicAddressFlagName)),
		Artifacts:     cliCtx.String(ArtifactsFlagName),
		GasFeeCap:     cliCtx.Int64(GasFeeCapFlagName),
		GasTipCap:     cliCtx.Int64(GasTipCapFlagName),
		GasLimit:      cliCtx.Uint64(GasLimitFlagName),
		Timeout:       time.Duration(cliCtx.Int(TimeoutSecondsFlagName)) * time.Second,
		Deterministic: cliCtx.Bool(DeterministicFlagName),
		JSON:          cliCtx.Bool(JSONFlagName),
	}
}

func (c Config) Check() error {
	var result *multierror.Error
	if c.RPCURL == "" {
		result = multierror.Append(result, errors.New("rpc-url is required"))
	}
	switch {
	case c.PrivateKey == "" && c.Mnemonic == "":
		result = multierror.Append(result, errors.New("one of private-key or mnemonic is required"))
	case c.PrivateKey != "" && c.Mnemonic != "":
		result = multierror.Append(result, errors.New("private-key and mnemonic are mutually exclusive"))
	}
	if c.ChainID < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid chain-id %d", c.ChainID))
	}
	if c.PublicAddress != "" && !common.IsHexAddress(c.PublicAddress) {
		result = multierror.Append(result, fmt.Errorf("invalid public-address: %s", c.PublicAddress))
	}
	if c.GasFeeCap <= 0 || c.GasTipCap < 0 || c.GasTipCap > c.GasFeeCap {
		result = multierror.Append(result, fmt.Errorf("invalid gas caps: fee cap %d, tip cap %d", c.GasFeeCap, c.GasTipCap))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, errors.New("timeout-seconds must be positive"))
	}
	return result.ErrorOrNil()
}

// Accounts returns the signing account and, for a mnemonic, the addresses
// of the following accounts.
func (c Config) Accounts() (signers.Account, []common.Address, error) {
	var (
		sender signers.Account
		others []common.Address
	)
	if c.Mnemonic != "" {
		accounts, err := signers.FromMnemonic(c.Mnemonic, mnemonicAccounts)
		if err != nil {
			return signers.Account{}, nil, err
		}
		sender = accounts[0]
		for _, a := range accounts[1:] {
			others = append(others, a.Address)
		}
	} else {
		var err error
		if sender, err = signers.FromPrivateKey(c.PrivateKey); err != nil {
			return signers.Account{}, nil, err
		}
	}

	if c.PublicAddress != "" {
		pub := common.HexToAddress(c.PublicAddress)
		if pub != sender.Address {
			return signers.Account{}, nil, fmt.Errorf("public-address %s does not match signing key address %s", pub.Hex(), sender.Address.Hex())
		}
	}
	return sender, others, nil
}

func parseAddress(name, v string) (common.Address, error) {
	v = strings.TrimSpace(v)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: invalid address: %s", name, v)
	}
	return common.HexToAddress(v), nil
}

func parseAddresses(name string, values []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(values))
	for i, v := range values {
		addr, err := parseAddress(fmt.Sprintf("%s[%d]", name, i), v)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
