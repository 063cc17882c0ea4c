package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings after file, env and flags are merged; the private key is masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, err := a.loadSettings(cmd)
			if err != nil {
				return err
			}
			f, _ := parseFormat(a.output)
			if f == formatTable {
				f = formatYAML
			}
			return render(cmd.OutOrStdout(), f, s.Redacted())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the settings and key lengths without calling the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, err := a.loadSettings(cmd)
			if err != nil {
				return err
			}
			if _, err := a.newClient(s); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return err
		},
	})
	return cmd
}
