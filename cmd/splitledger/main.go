package main

import (
	"github.com/alecthomas/kong"

	"github.com/mmynk/splitledger/internal/config"
)

var cli struct {
	config.Config

	Serve     ServeCmd     `cmd:"" help:"Start the HTTP API."`
	Recompute RecomputeCmd `cmd:"" help:"Rebuild a user's balance rows from unsettled expenses."`
	Rebuild   RebuildCmd   `cmd:"" help:"Replay expenses and settlements for every pair a user is in."`
	Balances  BalancesCmd  `cmd:"" help:"Print a user's balances."`
	Debts     DebtsCmd     `cmd:"" help:"Print the directed debts involving a user."`
	Token     TokenCmd     `cmd:"" help:"Issue a bearer token for a user."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("splitledger"),
		kong.Description("Pairwise balance ledger for shared expenses."),
		kong.UsageOnError(),
		kong.Bind(&cli.Config),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
