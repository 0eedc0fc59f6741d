package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/cosmo-local-credit/diamond/publish"
	"github.com/cosmo-local-credit/diamond/publish/artifacts"
	"github.com/cosmo-local-credit/diamond/publish/contracts/diamond"
	"github.com/cosmo-local-credit/diamond/publish/facets"
	"github.com/cosmo-local-credit/diamond/publish/pipeline"
	"github.com/cosmo-local-credit/diamond/publish/plan"
)

type session struct {
	log      log.Logger
	cfg      Config
	accounts []common.Address
	env      pipeline.Env
	out      io.Writer
}

// emit writes v as JSON when --json is set. Text output has already been
// written through the pipeline's progress writer.
func (s *session) emit(v any) error {
	if !s.cfg.JSON {
		return nil
	}
	return pipeline.WriteJSON(s.out, v)
}

// withSession validates the config, dials the node and runs fn under the
// command timeout. Artifacts are required unless optionalArtifacts is set.
func withSession(cliCtx *cli.Context, optionalArtifacts bool, fn func(ctx context.Context, s *session) error) error {
	lg, err := NewLogger(cliCtx)
	if err != nil {
		return err
	}
	cfg := ReadConfig(cliCtx)
	if err := cfg.Check(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	sender, accounts, err := cfg.Accounts()
	if err != nil {
		return err
	}

	store, err := artifacts.Open(cfg.Artifacts)
	if err != nil {
		if !optionalArtifacts {
			return fmt.Errorf("open artifacts: %w", err)
		}
		lg.Warn("Continuing without artifacts", "dir", cfg.Artifacts, "err", err)
		store = nil
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	d, err := publish.NewDeployer(ctx, cfg.RPCURL, cfg.ChainID, sender.Key, big.NewInt(cfg.GasFeeCap), big.NewInt(cfg.GasTipCap))
	if err != nil {
		return err
	}
	defer d.Close()
	lg.Info("Connected", "rpc", cfg.RPCURL, "chain_id", d.ChainID(), "sender", d.Address())

	out := cliCtx.App.Writer
	progress := out
	if cfg.JSON {
		progress = nil
	}
	return fn(ctx, &session{
		log:      lg,
		cfg:      cfg,
		accounts: accounts,
		out:      out,
		env: pipeline.Env{
			Chain:         d,
			Artifacts:     store,
			Log:           lg,
			Out:           progress,
			GasLimit:      cfg.GasLimit,
			Deterministic: cfg.Deterministic,
		},
	})
}

// loadPlan reads --plan, or the defaults, and applies the deploy flags set
// on the command line.
func loadPlan(cliCtx *cli.Context) (plan.Plan, error) {
	p := plan.Default()
	if path := cliCtx.String(PlanFlagName); path != "" {
		var err error
		if p, err = plan.Load(path); err != nil {
			return plan.Plan{}, err
		}
	}
	if cliCtx.IsSet(DiamondFlagName) {
		p.Diamond = cliCtx.String(DiamondFlagName)
	}
	if cliCtx.IsSet(InitFlagName) {
		p.Init = cliCtx.String(InitFlagName)
	}
	if cliCtx.IsSet(FacetFlagName) {
		names := cliCtx.StringSlice(FacetFlagName)
		p.Facets = make([]plan.Facet, len(names))
		for i, name := range names {
			p.Facets[i] = plan.Facet{Name: name}
		}
	}
	if cliCtx.IsSet(OwnerFlagName) {
		p.Owner = cliCtx.String(OwnerFlagName)
	}
	if cliCtx.IsSet(Beneficiary1FlagName) {
		p.Beneficiary1 = cliCtx.String(Beneficiary1FlagName)
	}
	if cliCtx.IsSet(Beneficiary2FlagName) {
		p.Beneficiary2 = cliCtx.String(Beneficiary2FlagName)
	}
	if cliCtx.IsSet(Stake1FlagName) {
		p.BeneficiaryStake1 = cliCtx.Uint64(Stake1FlagName)
	}
	if cliCtx.IsSet(Stake2FlagName) {
		p.BeneficiaryStake2 = cliCtx.Uint64(Stake2FlagName)
	}
	if cliCtx.IsSet(PaymentFlagName) {
		p.Payment = cliCtx.String(PaymentFlagName)
	}
	if cliCtx.IsSet(VerifyFlagName) {
		p.Verify = cliCtx.Bool(VerifyFlagName)
	}
	return p, p.Check()
}

func DeployCLI(cliCtx *cli.Context) error {
	p, err := loadPlan(cliCtx)
	if err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}
	return withSession(cliCtx, false, func(ctx context.Context, s *session) error {
		resolved, err := p.Resolve(s.env.Chain.Address(), s.accounts)
		if err != nil {
			return fmt.Errorf("invalid plan: %w", err)
		}
		s.log.Info("Deploying diamond", "diamond", resolved.Diamond, "facets", len(resolved.Facets),
			"owner", resolved.Owner, "beneficiary1", resolved.Beneficiary1, "beneficiary2", resolved.Beneficiary2)
		report, err := pipeline.Deploy(ctx, s.env, resolved)
		if err != nil {
			return err
		}
		return s.emit(report)
	})
}

func readCutRequest(cliCtx *cli.Context) (pipeline.CutRequest, error) {
	var req pipeline.CutRequest
	var err error
	if req.Diamond, err = parseAddress(DiamondAddressFlagName, cliCtx.String(DiamondAddressFlagName)); err != nil {
		return req, err
	}
	if req.Action, err = diamond.ParseFacetCutAction(cliCtx.String(ActionFlagName)); err != nil {
		return req, err
	}
	req.Facet = cliCtx.String(FacetFlagName)
	if v := cliCtx.String(FacetAddressFlagName); v != "" {
		if req.FacetAddress, err = parseAddress(FacetAddressFlagName, v); err != nil {
			return req, err
		}
	}
	req.Only = cliCtx.StringSlice(OnlyFlagName)
	req.Exclude = cliCtx.StringSlice(ExcludeFlagName)
	if v := cliCtx.String(InitAddressFlagName); v != "" {
		if req.Init, err = parseAddress(InitAddressFlagName, v); err != nil {
			return req, err
		}
	}
	if v := cliCtx.String(InitCalldataFlagName); v != "" {
		if req.InitCalldata, err = hexutil.Decode(v); err != nil {
			return req, fmt.Errorf("%s: %w", InitCalldataFlagName, err)
		}
	}
	return req, req.Check()
}

func CutCLI(cliCtx *cli.Context) error {
	req, err := readCutRequest(cliCtx)
	if err != nil {
		return fmt.Errorf("invalid cut: %w", err)
	}
	return withSession(cliCtx, false, func(ctx context.Context, s *session) error {
		report, err := pipeline.Cut(ctx, s.env, req)
		if err != nil {
			return err
		}
		return s.emit(report)
	})
}

func InspectCLI(cliCtx *cli.Context) error {
	addr, err := parseAddress(DiamondAddressFlagName, cliCtx.String(DiamondAddressFlagName))
	if err != nil {
		return err
	}
	beneficiaries, err := parseAddresses(BeneficiaryFlagName, cliCtx.StringSlice(BeneficiaryFlagName))
	if err != nil {
		return err
	}
	return withSession(cliCtx, true, func(ctx context.Context, s *session) error {
		if len(beneficiaries) == 0 {
			beneficiaries = s.accounts
		}
		in, err := pipeline.Inspect(ctx, s.env, addr, beneficiaries...)
		if err != nil {
			return err
		}
		if s.cfg.JSON {
			return s.emit(in)
		}
		pipeline.RenderInspection(s.out, in)
		return nil
	})
}

func DistributeCLI(cliCtx *cli.Context) error {
	addr, err := parseAddress(DiamondAddressFlagName, cliCtx.String(DiamondAddressFlagName))
	if err != nil {
		return err
	}
	value, err := publish.ParseEther(cliCtx.String(PaymentFlagName))
	if err != nil {
		return fmt.Errorf("%s: %w", PaymentFlagName, err)
	}
	return withSession(cliCtx, true, func(ctx context.Context, s *session) error {
		pick := func(name string, idx int) (common.Address, error) {
			if v := cliCtx.String(name); v != "" {
				return parseAddress(name, v)
			}
			if idx < len(s.accounts) {
				return s.accounts[idx], nil
			}
			return common.Address{}, fmt.Errorf("%s is required without a mnemonic", name)
		}
		b1, err := pick(Beneficiary1FlagName, 0)
		if err != nil {
			return err
		}
		b2, err := pick(Beneficiary2FlagName, 1)
		if err != nil {
			return err
		}
		payment, err := pipeline.Distribute(ctx, s.env, addr, value, b1, b2)
		if err != nil {
			return err
		}
		return s.emit(payment)
	})
}

func TransferOwnershipCLI(cliCtx *cli.Context) error {
	addr, err := parseAddress(DiamondAddressFlagName, cliCtx.String(DiamondAddressFlagName))
	if err != nil {
		return err
	}
	newOwner, err := parseAddress(NewOwnerFlagName, cliCtx.String(NewOwnerFlagName))
	if err != nil {
		return err
	}
	return withSession(cliCtx, true, func(ctx context.Context, s *session) error {
		transfer, err := pipeline.TransferOwnership(ctx, s.env, addr, newOwner)
		if err != nil {
			return err
		}
		return s.emit(transfer)
	})
}

type selectorOutput struct {
	Signature string `json:"signature"`
	Selector  string `json:"selector"`
}

// SelectorsCLI prints the selectors a facet artifact would register. It
// needs no node.
func SelectorsCLI(cliCtx *cli.Context) error {
	store, err := artifacts.Open(cliCtx.String(ArtifactsFlagName))
	if err != nil {
		return fmt.Errorf("open artifacts: %w", err)
	}
	name := cliCtx.String(FacetFlagName)
	art, err := store.Artifact(name)
	if errors.Is(err, artifacts.ErrNotFound) {
		return fmt.Errorf("%w (known: %v)", err, store.Names())
	}
	if err != nil {
		return err
	}
	sels := facets.FromABI(art.ABI)
	if only := cliCtx.StringSlice(OnlyFlagName); len(only) > 0 {
		sels = sels.Get(only...)
	}
	sels = sels.Remove(cliCtx.StringSlice(ExcludeFlagName)...)

	out := cliCtx.App.Writer
	if cliCtx.Bool(JSONFlagName) {
		list := make([]selectorOutput, len(sels))
		for i, s := range sels {
			list[i] = selectorOutput{Signature: s.Signature, Selector: s.Hex()}
		}
		return pipeline.WriteJSON(out, list)
	}
	for _, s := range sels {
		fmt.Fprintf(out, "%s %s\n", s.Hex(), s.Signature)
	}
	return nil
}

// PlanInitCLI writes the default deploy plan.
func PlanInitCLI(cliCtx *cli.Context) error {
	p := plan.Default()
	if path := cliCtx.String(OutFlagName); path != "-" {
		return p.Write(path)
	}
	return p.Encode(cliCtx.App.Writer)
}
