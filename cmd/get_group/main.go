// Command get_group prints the owning group of every path read from stdin.
package main

import (
	"github.com/spf13/cobra"

	"github.com/sadopc/mtimeutils/internal/cli"
	"github.com/sadopc/mtimeutils/internal/model"
)

var version = "dev"

func main() {
	cli.Main(command())
}

func command() cli.Command {
	return cli.Command{
		App: cli.App{
			Name:    "get_group",
			Short:   "Print the group of paths",
			Long:    "get_group reads newline-separated paths from stdin and prints each path with its group name and gid.\nIds without a group entry are printed as numbers.",
			Version: version,
		},
		Example: "  ls | get_group",
		Setup:   setup,
	}
}

func setup(*cobra.Command) cli.Emitter {
	return func(env *cli.Env, records []model.Record) error {
		groups := env.Groups()
		for _, rec := range model.Visible(records, model.SortAsc) {
			env.Out.IdentityLine(rec.Path(), groups.Name(rec.Meta.GID), rec.Meta.GID)
		}
		return nil
	}
}
