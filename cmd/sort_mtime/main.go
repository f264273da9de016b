// Command sort_mtime prints the paths read from stdin ordered by
// modification time, oldest first.
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
			Name:    "sort_mtime",
			Short:   "Sort paths by modification time",
			Long:    "sort_mtime reads newline-separated paths from stdin and prints them ordered by modification time, oldest first.\nPaths that cannot be stat'ed are reported on stderr and left out.",
			Version: version,
		},
		Example: "  find . -name '*.log' | sort_mtime\n  git ls-files | sort_mtime -r | head",
		Setup:   setup,
	}
}

func setup(cmd *cobra.Command) cli.Emitter {
	var reverse, naturalTies bool
	cli.OnceVarP(cmd, &reverse, "reverse", "r", "newest first")
	cmd.Flags().BoolVarP(&naturalTies, "natural-ties", "n", false, "order paths with equal mtimes by natural name order")

	return func(env *cli.Env, records []model.Record) error {
		cfg := model.DefaultSort()
		cfg.NaturalTies = naturalTies
		if reverse {
			cfg.Order = model.SortDesc
		}
		model.SortRecords(records, cfg)
		for _, rec := range model.Visible(records, cfg.Order) {
			env.Out.PathLine(rec.Path())
		}
		return nil
	}
}
