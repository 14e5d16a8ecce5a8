package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/toast/internal/scenario"
)

// scenarioPattern is the glob offered when completing `toast run`.
const scenarioPattern = "**/*.{yaml,yml}"

// ScenarioFileCompleter returns a ShellCompleteFunc that suggests scenario
// files below the working directory as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ScenarioFileCompleter() cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		writeScenarioFiles(cmd.Root().Writer, os.DirFS("."))
	}
}

func writeScenarioFiles(w io.Writer, fsys fs.FS) {
	files, err := scenario.ExpandFS(fsys, scenarioPattern)
	if err != nil {
		return
	}
	for _, f := range files {
		_, _ = fmt.Fprintln(w, f)
	}
}
