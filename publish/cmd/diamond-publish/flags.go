package main

import (
	"github.com/urfave/cli/v2"

	"github.com/cosmo-local-credit/diamond/publish/plan"
)

const (
	RPCURLFlagName         = "rpc-url"
	ChainIDFlagName        = "chain-id"
	PrivateKeyFlagName     = "private-key"
	MnemonicFlagName       = "mnemonic"
	PublicAddressFlagName  = "public-address"
	ArtifactsFlagName      = "artifacts"
	GasFeeCapFlagName      = "gas-fee-cap"
	GasTipCapFlagName      = "gas-tip-cap"
	GasLimitFlagName       = "gas-limit"
	TimeoutSecondsFlagName = "timeout-seconds"
	DeterministicFlagName  = "deterministic"
	JSONFlagName           = "json"
	LogLevelFlagName       = "log.level"
	LogFormatFlagName      = "log.format"
	LogColorFlagName       = "log.color"

	PlanFlagName         = "plan"
	DiamondFlagName      = "diamond"
	InitFlagName         = "init"
	FacetFlagName        = "facet"
	OwnerFlagName        = "owner"
	Beneficiary1FlagName = "beneficiary1"
	Beneficiary2FlagName = "beneficiary2"
	Stake1FlagName       = "stake1"
	Stake2FlagName       = "stake2"
	PaymentFlagName      = "payment"
	VerifyFlagName       = "verify"

	DiamondAddressFlagName = "diamond-address"
	ActionFlagName         = "action"
	FacetAddressFlagName   = "facet-address"
	OnlyFlagName           = "only"
	ExcludeFlagName        = "exclude"
	InitAddressFlagName    = "init-address"
	InitCalldataFlagName   = "init-calldata"
	BeneficiaryFlagName    = "beneficiary"
	OutFlagName            = "out"
	NewOwnerFlagName       = "new-owner"
)

var (
	RPCURLFlag = &cli.StringFlag{
		Name:    RPCURLFlagName,
		Usage:   "JSON-RPC endpoint of the target network",
		EnvVars: []string{"RPC_URL"},
	}
	ChainIDFlag = &cli.Int64Flag{
		Name:    ChainIDFlagName,
		Usage:   "Chain ID to sign for. 0 asks the node",
		EnvVars: []string{"CHAIN_ID"},
	}
	PrivateKeyFlag = &cli.StringFlag{
		Name:    PrivateKeyFlagName,
		Usage:   "Hex private key of the sender",
		EnvVars: []string{"PRIVATE_KEY"},
	}
	MnemonicFlag = &cli.StringFlag{
		Name:    MnemonicFlagName,
		Usage:   "BIP-39 mnemonic. Account 0 signs, accounts 1 and 2 are the default beneficiaries",
		EnvVars: []string{"MNEMONIC"},
	}
	PublicAddressFlag = &cli.StringFlag{
		Name:    PublicAddressFlagName,
		Usage:   "Expected sender address, checked against the signing key",
		EnvVars: []string{"PUBLIC_ADDRESS"},
	}
	ArtifactsFlag = &cli.StringFlag{
		Name:    ArtifactsFlagName,
		Usage:   "Directory of Hardhat or Foundry contract artifacts",
		EnvVars: []string{"ARTIFACTS_DIR"},
		Value:   "artifacts",
	}
	GasFeeCapFlag = &cli.Int64Flag{
		Name:    GasFeeCapFlagName,
		Usage:   "EIP-1559 fee cap in wei",
		EnvVars: []string{"GAS_FEE_CAP"},
		Value:   2_000_000_000,
	}
	GasTipCapFlag = &cli.Int64Flag{
		Name:    GasTipCapFlagName,
		Usage:   "EIP-1559 tip cap in wei",
		EnvVars: []string{"GAS_TIP_CAP"},
		Value:   1_000_000_000,
	}
	GasLimitFlag = &cli.Uint64Flag{
		Name:    GasLimitFlagName,
		Usage:   "Gas limit for every transaction. 0 estimates each one",
		EnvVars: []string{"GAS_LIMIT"},
	}
	TimeoutSecondsFlag = &cli.IntFlag{
		Name:    TimeoutSecondsFlagName,
		Usage:   "Timeout for the whole command in seconds",
		EnvVars: []string{"TIMEOUT_SECONDS"},
		Value:   600,
	}
	DeterministicFlag = &cli.BoolFlag{
		Name:    DeterministicFlagName,
		Usage:   "Deploy DiamondInit and facets through the CREATE2 proxy and reuse existing copies",
		EnvVars: []string{"DETERMINISTIC"},
	}
	JSONFlag = &cli.BoolFlag{
		Name:  JSONFlagName,
		Usage: "Print the result as JSON instead of text",
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    LogLevelFlagName,
		Usage:   "Log level: trace, debug, info, warn, error, crit",
		EnvVars: []string{"LOG_LEVEL"},
		Value:   "info",
	}
	LogFormatFlag = &cli.StringFlag{
		Name:    LogFormatFlagName,
		Usage:   "Log format: text, terminal, logfmt, json",
		EnvVars: []string{"LOG_FORMAT"},
		Value:   "text",
	}
	LogColorFlag = &cli.BoolFlag{
		Name:    LogColorFlagName,
		Usage:   "Color terminal logs. Defaults to on when stderr is a terminal",
		EnvVars: []string{"LOG_COLOR"},
	}
)

var (
	PlanFlag = &cli.StringFlag{
		Name:    PlanFlagName,
		Usage:   "TOML deploy plan. Flags override its values",
		EnvVars: []string{"DEPLOY_PLAN"},
	}
	DiamondFlag = &cli.StringFlag{
		Name:  DiamondFlagName,
		Usage: "Diamond artifact name",
	}
	InitFlag = &cli.StringFlag{
		Name:  InitFlagName,
		Usage: "Initializer artifact name",
	}
	FacetFlag = &cli.StringSliceFlag{
		Name:  FacetFlagName,
		Usage: "Facet artifact name, repeatable. Replaces the plan's facet list",
	}
	OwnerFlag = &cli.StringFlag{
		Name:    OwnerFlagName,
		Usage:   "Diamond owner. Defaults to the sender",
		EnvVars: []string{"OWNER"},
	}
	Beneficiary1Flag = &cli.StringFlag{
		Name:    Beneficiary1FlagName,
		Usage:   "First beneficiary. Defaults to mnemonic account 1",
		EnvVars: []string{"BENEFICIARY1"},
	}
	Beneficiary2Flag = &cli.StringFlag{
		Name:    Beneficiary2FlagName,
		Usage:   "Second beneficiary. Defaults to mnemonic account 2",
		EnvVars: []string{"BENEFICIARY2"},
	}
	Stake1Flag = &cli.Uint64Flag{
		Name:  Stake1FlagName,
		Usage: "First beneficiary stake out of 100",
	}
	Stake2Flag = &cli.Uint64Flag{
		Name:  Stake2FlagName,
		Usage: "Second beneficiary stake out of 100",
	}
	PaymentFlag = &cli.StringFlag{
		Name:  PaymentFlagName,
		Usage: "Validation payment in ether. 0 skips it",
		Value: plan.DefaultPayment,
	}
	VerifyFlag = &cli.BoolFlag{
		Name:  VerifyFlagName,
		Usage: "Check owner and loupe routes after deployment",
	}

	DiamondAddressFlag = &cli.StringFlag{
		Name:     DiamondAddressFlagName,
		Usage:    "Address of a deployed diamond",
		EnvVars:  []string{"DIAMOND_ADDRESS"},
		Required: true,
	}
	ActionFlag = &cli.StringFlag{
		Name:  ActionFlagName,
		Usage: "Facet cut action: add, replace, remove",
		Value: "add",
	}
	CutFacetFlag = &cli.StringFlag{
		Name:     FacetFlagName,
		Usage:    "Facet artifact name",
		Required: true,
	}
	FacetAddressFlag = &cli.StringFlag{
		Name:  FacetAddressFlagName,
		Usage: "Use an already deployed facet instead of deploying the artifact",
	}
	OnlyFlag = &cli.StringSliceFlag{
		Name:  OnlyFlagName,
		Usage: "Only these functions (name, signature or 0x selector)",
	}
	ExcludeFlag = &cli.StringSliceFlag{
		Name:  ExcludeFlagName,
		Usage: "Leave out these functions (name, signature or 0x selector)",
	}
	InitAddressFlag = &cli.StringFlag{
		Name:  InitAddressFlagName,
		Usage: "Contract delegatecalled by diamondCut after the cut",
	}
	InitCalldataFlag = &cli.StringFlag{
		Name:  InitCalldataFlagName,
		Usage: "Hex calldata for the init contract",
	}
	BeneficiaryFlag = &cli.StringSliceFlag{
		Name:  BeneficiaryFlagName,
		Usage: "Address whose balance is shown, repeatable",
	}
	NewOwnerFlag = &cli.StringFlag{
		Name:     NewOwnerFlagName,
		Usage:    "Address that takes over the diamond",
		Required: true,
	}
	OutFlag = &cli.StringFlag{
		Name:  OutFlagName,
		Usage: "Output file. Use - for stdout",
		Value: "-",
	}
)

var GlobalFlags = []cli.Flag{
	RPCURLFlag,
	ChainIDFlag,
	PrivateKeyFlag,
	MnemonicFlag,
	PublicAddressFlag,
	ArtifactsFlag,
	GasFeeCapFlag,
	GasTipCapFlag,
	GasLimitFlag,
	TimeoutSecondsFlag,
	DeterministicFlag,
	JSONFlag,
	LogLevelFlag,
	LogFormatFlag,
	LogColorFlag,
}

var DeployFlags = []cli.Flag{
	PlanFlag,
	DiamondFlag,
	InitFlag,
	FacetFlag,
	OwnerFlag,
	Beneficiary1Flag,
	Beneficiary2Flag,
	Stake1Flag,
	Stake2Flag,
	PaymentFlag,
	VerifyFlag,
}

var CutFlags = []cli.Flag{
	DiamondAddressFlag,
	ActionFlag,
	CutFacetFlag,
	FacetAddressFlag,
	OnlyFlag,
	ExcludeFlag,
	InitAddressFlag,
	InitCalldataFlag,
}

var InspectFlags = []cli.Flag{
	DiamondAddressFlag,
	BeneficiaryFlag,
}

var DistributeFlags = []cli.Flag{
	DiamondAddressFlag,
	PaymentFlag,
	Beneficiary1Flag,
	Beneficiary2Flag,
}

var TransferOwnershipFlags = []cli.Flag{
	DiamondAddressFlag,
	NewOwnerFlag,
}

var SelectorsFlags = []cli.Flag{
	CutFacetFlag,
	OnlyFlag,
	ExcludeFlag,
}

var PlanInitFlags = []cli.Flag{
	OutFlag,
}
