package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var Version = "v0.1.0"

func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "diamond-publish"
	app.Usage = "Deploys and manages EIP-2535 diamonds"
	app.Version = Version
	app.Flags = GlobalFlags
	app.Commands = []*cli.Command{
		{
			Name:   "deploy",
			Usage:  "deploys the init contract, the facets and the diamond, then sends the validation payment",
			Flags:  DeployFlags,
			Action: DeployCLI,
		},
		{
			Name:   "cut",
			Usage:  "adds, replaces or removes one facet's selectors on a deployed diamond",
			Flags:  CutFlags,
			Action: CutCLI,
		},
		{
			Name:   "inspect",
			Usage:  "lists a diamond's facets, owner, stakes and beneficiary balances",
			Flags:  InspectFlags,
			Action: InspectCLI,
		},
		{
			Name:   "distribute",
			Usage:  "pays into receiveAndDistributePayment and prints the beneficiary balances",
			Flags:  DistributeFlags,
			Action: DistributeCLI,
		},
		{
			Name:   "transfer-ownership",
			Usage:  "transfers the diamond to a new owner through OwnershipFacet",
			Flags:  TransferOwnershipFlags,
			Action: TransferOwnershipCLI,
		},
		{
			Name:   "selectors",
			Usage:  "prints the selectors a facet artifact registers",
			Flags:  SelectorsFlags,
			Action: SelectorsCLI,
		},
		{
			Name:   "plan-init",
			Usage:  "writes the default deploy plan as TOML",
			Flags:  PlanInitFlags,
			Action: PlanInitCLI,
		},
	}
	return app
}

func main() {
	app := NewApp()
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}
