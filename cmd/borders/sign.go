package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// signOutput is what sign prints in json/yaml mode.
type signOutput struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Signature string            `json:"signature" yaml:"signature"`
	Params    map[string]string `json:"params" yaml:"params"`
	Order     []string          `json:"order" yaml:"order"`
	Body      string            `json:"body,omitempty" yaml:"body,omitempty"`
	Signable  string            `json:"signable,omitempty" yaml:"signable,omitempty"`
}

func newSignCmd(a *app) *cobra.Command {
	var (
		rf           requestFlags
		showSignable bool
	)
	cmd := &cobra.Command{
		Use:   "sign METHOD PATH",
		Short: "Print the signed URL and body for a request without sending it",
		Long: `Sign builds a request exactly as the verb commands would and prints it.
Use it to compare against what the server computed when a signature is
rejected. --show-signable also prints the string that is hashed; it contains
the private key.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			params, err := rf.params()
			if err != nil {
				return err
			}
			body, err := rf.body(cmd.InOrStdin())
			if err != nil {
				return err
			}
			f, _ := parseFormat(a.output)

			_, settings, err := a.loadSettings(cmd)
			if err != nil {
				return err
			}
			client, err := a.newClient(settings)
			if err != nil {
				return err
			}
			signed, err := client.Sign(method, args[1], body, params)
			if err != nil {
				return err
			}

			out := signOutput{
				Method: signed.Method,
				URL:    signed.URL,
				Params: make(map[string]string, signed.Params.Len()),
				Order:  signed.Params.Keys(),
				Body:   string(signed.Body),
			}
			for k, v := range signed.Params.All() {
				out.Params[k] = v
			}
			out.Signature, _ = signed.Params.Get("signature")
			if showSignable {
				out.Signable = client.Signer().SignableString(signed.Method, signed.Path, signed.Params.All(), string(signed.Body))
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: the signable string contains the private key")
			}

			if f == formatTable {
				return render(cmd.OutOrStdout(), f, map[string]any{
					"method":    out.Method,
					"url":       out.URL,
					"signature": out.Signature,
					"body":      out.Body,
					"signable":  out.Signable,
				})
			}
			return render(cmd.OutOrStdout(), f, out)
		},
	}
	rf.register(cmd, true)
	cmd.Flags().BoolVar(&showSignable, "show-signable", false, "also print the pre-hash string (includes the private key)")
	return cmd
}
