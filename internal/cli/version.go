package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/innerhue/moodsync/models"
)

func newVersionCmd(build models.AppBuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Build version: %s\n", build.BuildVersion())
			fmt.Fprintf(out, "Build date: %s\n", build.BuildDate())
			fmt.Fprintf(out, "Build commit: %s\n", build.BuildCommit())
		},
	}
}
