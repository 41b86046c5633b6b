package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// buildInfo is the release identity stamped in at build time.
type buildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:                  "version",
		EnableShellCompletion: true,
		Usage:                 "Print version information",
		Flags:                 []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return writeResult(ctx, cmd, buildInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
			})
		},
	}
}
