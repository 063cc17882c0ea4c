package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lgc202/borders-go/borders"
	"github.com/lgc202/borders-go/config"
	"github.com/lgc202/borders-go/metrics"
)

// app holds the state shared by all subcommands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	log    *logrus.Logger

	// transport replaces the network in tests.
	transport http.RoundTripper

	configPath  string
	host        string
	secure      bool
	timeout     int
	digest      string
	output      string
	verbose     bool
	metricsFile string

	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	log := logrus.New()
	log.SetOutput(errOut)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &app{in: in, out: out, errOut: errOut, log: log}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "borders",
		Short:         "Signed requests against the BORDERS API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}
			if _, err := parseFormat(a.output); err != nil {
				return err
			}
			if a.metricsFile != "" {
				a.registry = prometheus.NewRegistry()
				a.metrics = metrics.New("borders")
				if err := a.registry.Register(a.metrics); err != nil {
					return err
				}
			}
			return nil
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "config file (yaml, json or toml); BORDERS_* env vars apply either way")
	f.StringVar(&a.host, "host", "", "API host, overrides config")
	f.BoolVar(&a.secure, "secure", false, "use https, overrides config")
	f.IntVar(&a.timeout, "timeout", 0, "request lifetime in seconds, overrides config")
	f.StringVar(&a.digest, "digest", "", "signature digest encoding (raw, hex), overrides config")
	f.StringVarP(&a.output, "output", "o", string(formatJSON), "output format (json, yaml, table)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log every exchange to stderr")
	f.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file when the command ends")

	root.AddCommand(
		newCallCmd(a, http.MethodGet),
		newCallCmd(a, http.MethodPost),
		newCallCmd(a, http.MethodPut),
		newCallCmd(a, http.MethodDelete),
		newSignCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// loadSettings reads the config file and env, then applies explicit flags.
func (a *app) loadSettings(cmd *cobra.Command, opts ...config.Option[config.Settings]) (*config.Config[config.Settings], config.Settings, error) {
	cfg, err := config.LoadSettings(a.configPath, opts...)
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, a.override(cmd, cfg.Get()), nil
}

func (a *app) override(cmd *cobra.Command, s config.Settings) config.Settings {
	flags := cmd.Flags()
	if flags.Changed("host") {
		s.Host = a.host
	}
	if flags.Changed("secure") {
		s.Secure = a.secure
	}
	if flags.Changed("timeout") {
		s.Timeout = a.timeout
	}
	if flags.Changed("digest") {
		s.Digest = a.digest
	}
	return s
}

// flushMetrics writes the metrics file, if one was requested. It runs after
// failed commands too.
func (a *app) flushMetrics() error {
	if a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) newClient(s config.Settings) (*borders.Client, error) {
	before, after := logHooks(a.log)
	extra := []borders.Option{borders.WithHooks(before, after)}
	if a.metrics != nil {
		extra = append(extra, borders.WithHooks(a.metrics.Hooks()))
	}
	if a.transport != nil {
		extra = append(extra, borders.WithTransport(a.transport))
	}
	return s.NewClient(extra...)
}
