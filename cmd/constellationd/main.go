package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/constellation-lab/constellation-zkevm/cmd/constellationd/commands"
	"github.com/constellation-lab/constellation-zkevm/config"
	"github.com/constellation-lab/constellation-zkevm/libs/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := config.DefaultConfig()

	rcmd := commands.RootCommand(conf)
	rcmd.AddCommand(
		commands.MakeInitCommand(conf),
		commands.MakeStartCommand(conf),
		commands.MakeTxCommand(),
		commands.VersionCmd,
	)

	if err := cli.RunWithTrace(ctx, rcmd); err != nil {
		os.Exit(1)
	}
}
