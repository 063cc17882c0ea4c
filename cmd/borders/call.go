package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lgc202/borders-go/borders"
	"github.com/lgc202/borders-go/config"
)

// requestFlags are shared by the verb commands and sign.
type requestFlags struct {
	query    []string
	data     string
	dataFile string
	headers  []string
}

func (rf *requestFlags) register(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayVarP(&rf.query, "query", "q", nil, "query parameter key=value, repeatable; order is kept")
	if withBody {
		cmd.Flags().StringVarP(&rf.data, "data", "d", "", "JSON object body")
		cmd.Flags().StringVar(&rf.dataFile, "data-file", "", "read the JSON body from a file, - for stdin")
		cmd.MarkFlagsMutuallyExclusive("data", "data-file")
	}
}

func (rf *requestFlags) params() (*borders.Params, error) {
	p := borders.NewParams()
	for _, kv := range rf.query {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("query %q: want key=value", kv)
		}
		p.Set(k, v)
	}
	return p, nil
}

func (rf *requestFlags) callOptions() ([]borders.CallOption, error) {
	var opts []borders.CallOption
	for _, h := range rf.headers {
		k, v, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("header %q: want Name: value", h)
		}
		opts = append(opts, borders.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v)))
	}
	return opts, nil
}

// body returns nil when no body was given.
func (rf *requestFlags) body(stdin io.Reader) (any, error) {
	var raw []byte
	switch {
	case rf.data != "":
		raw = []byte(rf.data)
	case rf.dataFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	case rf.dataFile != "":
		b, err := os.ReadFile(rf.dataFile)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("body: %w", borders.ErrInvalidBody)
	}
	return v, nil
}

func newCallCmd(a *app, method string) *cobra.Command {
	var (
		rf          requestFlags
		callTimeout time.Duration
		watch       bool
		interval    time.Duration
	)
	withBody := method == http.MethodPost || method == http.MethodPut

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " PATH",
		Short: "Send a signed " + method + " request and print the response payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := rf.params()
			if err != nil {
				return err
			}
			var body any
			if withBody {
				if body, err = rf.body(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			opts, err := rf.callOptions()
			if err != nil {
				return err
			}
			if callTimeout > 0 {
				opts = append(opts, borders.WithCallTimeout(callTimeout))
			}
			f, _ := parseFormat(a.output)

			var copts []config.Option[config.Settings]
			if watch && a.configPath != "" {
				copts = append(copts, config.WithWatch[config.Settings]())
			}
			cfg, settings, err := a.loadSettings(cmd, copts...)
			if err != nil {
				return err
			}
			client, err := a.newClient(settings)
			if err != nil {
				return err
			}

			call := func(ctx context.Context) error {
				payload, err := client.Do(ctx, method, args[0], body, params, opts...)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), f, payload)
			}
			if method == http.MethodPut {
				// Uploads are not implemented; the client refuses without I/O.
				call = func(ctx context.Context) error {
					_, err := client.Put(ctx, args[0], body, params, opts...)
					return err
				}
			}

			if !watch {
				return call(cmd.Context())
			}
			cfg.OnChange(func(_, s config.Settings) {
				a.override(cmd, s).Apply(client)
				a.log.WithFields(logrus.Fields{
					"secure":  client.IsSecure(),
					"timeout": client.Timeout(),
				}).Info("config reloaded")
			})
			cfg.OnError(func(err error) {
				a.log.WithError(err).Warn("config reload failed, keeping previous settings")
			})
			return a.poll(cmd.Context(), interval, call)
		},
	}
	rf.register(cmd, withBody)
	cmd.Flags().StringArrayVarP(&rf.headers, "header", "H", nil, "extra header \"Name: value\", repeatable")
	cmd.Flags().DurationVar(&callTimeout, "call-timeout", 0, "deadline for this call only; expires still follows --timeout")
	if method == http.MethodGet {
		cmd.Flags().BoolVarP(&watch, "watch", "w", false, "repeat the call until interrupted; config file changes apply to the running client")
		cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "delay between calls with --watch")
	}
	return cmd
}

// poll runs call every interval until ctx is done. Call failures are
// logged and polling continues.
func (a *app) poll(ctx context.Context, interval time.Duration, call func(context.Context) error) error {
	if interval <= 0 {
		return errors.New("--interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := call(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.log.WithError(err).Warn("call failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
