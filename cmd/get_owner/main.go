// Command get_owner prints the owning user of every path read from stdin.
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
			Name:    "get_owner",
			Short:   "Print the owner of paths",
			Long:    "get_owner reads newline-separated paths from stdin and prints each path with its owner name and uid.\nIds without an account entry are printed as numbers.",
			Version: version,
		},
		Example: "  ls | get_owner\n  find /srv -type f | get_owner | awk -F'\\t' '$2 != \"www\"'",
		Setup:   setup,
	}
}

func setup(*cobra.Command) cli.Emitter {
	return func(env *cli.Env, records []model.Record) error {
		owners := env.Owners()
		for _, rec := range model.Visible(records, model.SortAsc) {
			env.Out.IdentityLine(rec.Path(), owners.Name(rec.Meta.UID), rec.Meta.UID)
		}
		return nil
	}
}
