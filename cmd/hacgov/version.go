package main

import (
	"fmt"

	"github.com/calehh/hac-gov/app"
	"github.com/spf13/cobra"
)

var (
	GitCommit string
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the hacgov version",
	Aliases: []string{"V"},
	Run:     versionRun,
}

func versionRun(cmd *cobra.Command, args []string) {
	fmt.Println(app.VersionWithCommit(GitCommit))
}
