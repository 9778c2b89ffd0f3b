package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/d0t0ne/dignezzz/internal/application"
	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
	"github.com/d0t0ne/dignezzz/internal/shared/security"
)

const envPrefix = "EVALUATE"

var cfgFile string
var logger *zap.SugaredLogger

var rootCmd = &cobra.Command{
	Use:   "evaluate <domain[:port]>",
	Short: "Evaluate whether a host is a suitable Reality SNI target",
	Long: `Runs TLS 1.3, HTTP/2 (and HTTP/3), CDN, redirect and latency probes
against one host concurrently and prints an accept/reject verdict with the
reasons behind it.`,
	Example: `  evaluate example.com
  evaluate example.com:8443 --profile dest --output json`,
	Args:          exactTarget,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		if err := applyConfigDefaults(cmd); err != nil {
			return err
		}
		if err := cliConfig.validate(); err != nil {
			return err
		}

		l, err := newLogger(cliConfig.LogLevel, cliConfig.Verbose)
		if err != nil {
			return err
		}
		logger = l.Sugar()
		logger.Debugw("configuration loaded", "config_file", viper.ConfigFileUsed(), "profile", cliConfig.Profile)
		return nil
	},
	RunE: runEvaluate,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("error:"), err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.evaluate.yaml)")

	flags.StringVarP(&cliConfig.Profile, "profile", "p", cliConfig.Profile, "evaluation profile: dest or sni")
	flags.StringVarP(&cliConfig.Output, "output", "o", cliConfig.Output, "output format: text, json, yaml or pdf")
	flags.StringVar(&cliConfig.ReportFile, "report-file", "", "write the report to this file instead of stdout")
	flags.StringVar(&cliConfig.ReportDir, "report-dir", "", "directory that --report-file must stay within")
	flags.DurationVar(&cliConfig.Timeouts.Deadline, "timeout-deadline", cliConfig.Timeouts.Deadline, "hard deadline for all probes")
	flags.BoolVar(&cliConfig.Insecure, "insecure", false, "skip certificate verification for TLS and HTTP probes")
	flags.StringSliceVar(&cliConfig.DNS.Nameservers, "nameserver", nil, "DNS server used for lookups (repeatable)")
	flags.StringVar(&cliConfig.CDN.ASNSource, "asn-source", cliConfig.CDN.ASNSource, "ASN lookup source: whois or dns")
	flags.StringVar(&cliConfig.Latency.Preset, "rating-preset", cliConfig.Latency.Preset, "latency rating preset: regional or continental")
	flags.BoolVarP(&cliConfig.Verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&cliConfig.NoProgress, "no-progress", false, "disable the progress line")

	rootCmd.SetVersionTemplate(versionTemplate())
}

// exactTarget requires one positional argument and prints usage otherwise;
// usage stays silenced for every other error.
func exactTarget(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
		return err
	}
	return nil
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".evaluate")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("%w: log_level %q", sharedErrors.ErrValidation, level)
		}
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	defer func() { _ = logger.Sync() }()

	target, err := evaluation.ParseTarget(args[0])
	if err != nil {
		return err
	}

	var progress *progressPrinter
	var onOutcome func(evaluation.Outcome)
	if !cliConfig.NoProgress && cliConfig.Output == outputText && cliConfig.ReportFile == "" {
		progress = newProgressPrinter(cmd.ErrOrStderr(), target.String())
		onOutcome = progress.Observe
	}

	opts, err := cliConfig.containerOptions(onOutcome)
	if err != nil {
		return err
	}
	container, err := application.NewContainer(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if progress != nil {
		progress.SetTotal(len(container.Evaluator.Probes))
		progress.Start()
	}
	report, verdict, err := container.Evaluator.Evaluate(ctx, target)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		if errors.Is(err, sharedErrors.ErrNoReachablePort) {
			return &ConnectivityError{Target: target, Ports: candidatePorts(target), Err: err}
		}
		return err
	}

	path := ""
	if cliConfig.ReportFile != "" {
		if path, err = cliConfig.reportPath(); err != nil {
			return err
		}
		if err := security.EnsureParent(path); err != nil {
			return err
		}
	}
	return writeReport(cmd.OutOrStdout(), cliConfig.Output, path, report, verdict)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func candidatePorts(target evaluation.Target) []int {
	if target.HasPort() {
		return []int{target.Port}
	}
	return cliConfig.Connectivity.Ports
}
