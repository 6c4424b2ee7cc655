package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/classforge/cmd/classforge/commands"
	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Logger: slog.Default()}
	ctx := kong.Parse(&cli,
		kong.Name("classforge"),
		kong.Description("Run bytecode transformers over a class workspace until they converge."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global, &cli),
	)

	err := ctx.Run()
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
