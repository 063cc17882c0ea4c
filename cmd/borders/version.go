package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgc202/borders-go/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			f, _ := parseFormat(a.output)
			if f == formatTable {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Text())
				return err
			}
			return render(cmd.OutOrStdout(), f, info)
		},
	}
}
