// Command get_mtime prints the modification time of every path read from
// stdin.
package main

import (
	"github.com/spf13/cobra"

	"github.com/sadopc/mtimeutils/internal/cli"
	"github.com/sadopc/mtimeutils/internal/model"
	"github.com/sadopc/mtimeutils/internal/util"
)

var version = "dev"

func main() {
	cli.Main(command())
}

func command() cli.Command {
	return cli.Command{
		App: cli.App{
			Name:    "get_mtime",
			Short:   "Print modification times of paths",
			Long:    "get_mtime reads newline-separated paths from stdin and prints each path with its modification time.\nThe default format is ctime(3) in local time.",
			Version: version,
		},
		Example: "  ls | get_mtime\n  find . -type f | get_mtime -e\n  git ls-files | get_mtime --format='%Y-%m-%d %H:%M'",
		Setup:   setup,
	}
}

type options struct {
	epoch     bool
	format    string
	formatSet bool
	relative  bool
	json      bool
}

func setup(cmd *cobra.Command) cli.Emitter {
	var o options
	cli.OnceVarP(cmd, &o.epoch, "epoch", "e", "print seconds since the Unix epoch", cli.WithLongName())
	fs := cmd.Flags()
	fs.StringVar(&o.format, "format", "", "strftime(3) pattern for the time column")
	fs.BoolVar(&o.relative, "relative", false, "print the age relative to now, e.g. \"3 hours ago\"")
	fs.BoolVar(&o.json, "json", false, "print one JSON object per path")
	cmd.MarkFlagsMutuallyExclusive("epoch", "format", "relative", "json")

	return func(env *cli.Env, records []model.Record) error {
		if o.json {
			for _, rec := range model.Visible(records, model.SortAsc) {
				env.Out.JSONLine(rec)
			}
			return nil
		}

		o.formatSet = fs.Changed("format")
		format, err := o.formatter(env)
		if err != nil {
			return err
		}
		for _, rec := range model.Visible(records, model.SortAsc) {
			env.Out.TimeLine(rec.Path(), format(rec.Meta.ModTime))
		}
		return nil
	}
}

// formatter picks the time column renderer. A configured time_format
// applies only when no format flag was given. An explicit empty --format
// leaves the time column empty.
func (o options) formatter(env *cli.Env) (util.TimeFormatter, error) {
	switch {
	case o.epoch:
		return util.FormatEpoch, nil
	case o.relative:
		return util.RelativeTo(env.Now), nil
	case o.formatSet:
		return util.NewStrftime(o.format)
	case env.Config.TimeFormat != "":
		return util.NewStrftime(env.Config.TimeFormat)
	}
	return util.FormatCtime, nil
}
