package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/lineblame/pkg/config"
	"github.com/ccollicutt/lineblame/pkg/output"
	"github.com/ccollicutt/lineblame/pkg/source"
	"github.com/ccollicutt/lineblame/pkg/webhook"
)

// ExitCode is set by commands to indicate the result.
var ExitCode = 0

// Exit codes shared by all commands.
const (
	ExitOK        = 0
	ExitMalformed = 1
	ExitError     = 2
)

// InputOptions holds the flags shared by commands that decode blame output.
type InputOptions struct {
	ConfigFile  string
	Output      string
	Strict      bool
	Concurrency int
	KeepGoing   bool
	Verbose     bool
	Quiet       bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

func addInputFlags(cmd *cobra.Command, opts *InputOptions) {
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Configuration file (env: "+config.EnvConfig+")")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultFormat, "Output format (text|json|csv)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Reject unknown metadata keywords")
	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", source.DefaultConcurrency, "Number of inputs decoded at once")
	cmd.Flags().BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "Report malformed inputs and continue with the rest")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show times, previous revisions and boundary markers")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailure), "When to fire webhook (on_failure|always|never)")
}

// run is the resolved state of a decoding command.
type run struct {
	cfg        *config.Config
	configFile string
	paths      []string
	batch      *source.Batch
}

// loadInputs resolves configuration, merges flags over it and decodes every
// input. A fatal decoding failure is returned as a *source.Failure.
func loadInputs(ctx context.Context, cmd *cobra.Command, args []string, opts *InputOptions) (*run, error) {
	cfg, err := config.Resolve(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyInputFlags(cmd, cfg, opts)
	if err := validateWebhookTrigger(opts); err != nil {
		return nil, err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Sources
	}
	if len(patterns) == 0 {
		return nil, errors.New("no inputs: pass files, '-' for standard input, or set sources in the config")
	}

	paths, err := source.ExpandGlobs(patterns)
	if err != nil {
		return nil, fmt.Errorf("expanding inputs: %w", err)
	}

	r := &run{cfg: cfg, configFile: opts.ConfigFile, paths: paths}

	log.WithFields(log.Fields{
		"inputs":      len(paths),
		"strict":      cfg.Parser.Strict,
		"concurrency": cfg.Parser.Concurrency,
	}).Debug("decoding inputs")

	r.batch, err = source.LoadAll(ctx, paths, source.Options{
		Strict:      cfg.Parser.Strict,
		Concurrency: cfg.Parser.Concurrency,
		KeepGoing:   opts.KeepGoing,
	})
	if err != nil {
		return r, err
	}
	return r, nil
}

// applyInputFlags lets explicitly set flags override the configuration.
func applyInputFlags(cmd *cobra.Command, cfg *config.Config, opts *InputOptions) {
	flags := cmd.Flags()
	if opts.Strict {
		cfg.Parser.Strict = true
	}
	if flags.Changed("concurrency") {
		cfg.Parser.Concurrency = opts.Concurrency
	}
	if flags.Changed("output") {
		cfg.Output.Format = opts.Output
	}
}

func validateWebhookTrigger(opts *InputOptions) error {
	if opts.WebhookURL == "" {
		return nil
	}
	switch config.WebhookTrigger(strings.ToLower(opts.WebhookTrigger)) {
	case config.WebhookTriggerOnFailure, config.WebhookTriggerAlways, config.WebhookTriggerNever:
		return nil
	default:
		return fmt.Errorf("invalid --webhook-trigger %q (use on_failure, always or never)", opts.WebhookTrigger)
	}
}

// writeReport renders report in the configured format to w.
func writeReport(ctx context.Context, w io.Writer, cfg *config.Config, opts *InputOptions, report *output.Report) error {
	formatter, err := output.NewFormatter(cfg.Output.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	if err := formatter.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}

// sendWebhooks delivers the report to the configured and command-line
// webhooks. Delivery failures are logged and never fail the command.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *InputOptions, report *output.Report) {
	hooks := collectWebhooks(cfg, opts)
	if len(hooks) == 0 {
		return
	}
	webhook.NewClient().Dispatch(ctx, report, hooks)
}

// collectWebhooks merges config file webhooks with the command-line webhook.
func collectWebhooks(cfg *config.Config, opts *InputOptions) []config.WebhookConfig {
	hooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	hooks = append(hooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(strings.ToLower(opts.WebhookTrigger))
		if trigger == "" {
			trigger = config.WebhookTriggerOnFailure
		}

		hooks = append(hooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return hooks
}

// failureBatch wraps a fatal decoding error so it can still be reported.
func failureBatch(err error) (*source.Batch, bool) {
	var failure *source.Failure
	if !errors.As(err, &failure) {
		return nil, false
	}
	return &source.Batch{Failures: []*source.Failure{failure}}, true
}

// exitCodeFor maps a finished report to an exit code. Inputs that could
// not be read take precedence over malformed ones.
func exitCodeFor(report *output.Report) int {
	code := ExitOK
	for _, f := range report.Failures {
		if f.Kind == "" {
			return ExitError
		}
		code = ExitMalformed
	}
	return code
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
