package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/d0t0ne/dignezzz/internal/application"
	evaluateapp "github.com/d0t0ne/dignezzz/internal/application/evaluate"
	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
	"github.com/d0t0ne/dignezzz/internal/shared/security"
)

// Output formats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
	outputPDF  = "pdf"
)

// CLIConfig captures the runtime configuration of one evaluation.
type CLIConfig struct {
	Profile    string
	Output     string
	ReportFile string
	ReportDir  string
	LogLevel   string
	Verbose    bool
	Insecure   bool
	NoProgress bool

	Timeouts     TimeoutConfig
	Connectivity ConnectivityConfig
	Latency      LatencyConfig
	DNS          DNSConfig
	CDN          CDNConfig
}

// TimeoutConfig bounds each kind of network operation.
type TimeoutConfig struct {
	Connect  time.Duration
	TLS      time.Duration
	HTTP     time.Duration
	DNS      time.Duration
	ICMP     time.Duration
	Deadline time.Duration
}

// ConnectivityConfig lists the ports tried when the target has none.
type ConnectivityConfig struct {
	Ports []int
}

// LatencyConfig controls the ICMP probe and its rating.
type LatencyConfig struct {
	Count     int
	MinRating int
	Preset    string
	// Bands overrides Preset when set.
	Bands evaluation.RatingBands
}

// DNSConfig groups DNS-specific runtime options.
type DNSConfig struct {
	Nameservers []string
}

// CDNConfig configures the lookups behind the CDN tiers.
type CDNConfig struct {
	ASNSource   string
	WhoisServer string
	IPInfoURL   string
	IPInfoToken string
	IPInfoRate  float64
	Providers   []checker.Provider
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Profile:  evaluateapp.DefaultProfile,
		Output:   outputText,
		LogLevel: "warn",
		Timeouts: TimeoutConfig{
			Connect:  consts.ConnectTimeout,
			TLS:      consts.TLSHandshakeTimeout,
			HTTP:     consts.HTTPTimeout,
			DNS:      consts.DNSTimeout,
			ICMP:     consts.ICMPTimeout,
			Deadline: consts.EvaluationDeadline,
		},
		Connectivity: ConnectivityConfig{
			Ports: append([]int(nil), consts.DefaultCandidatePorts...),
		},
		Latency: LatencyConfig{
			Count:     consts.PingCount,
			MinRating: consts.MinAcceptableRating,
			Preset:    evaluation.PresetRegional,
		},
		DNS: DNSConfig{
			Nameservers: []string{},
		},
		CDN: CDNConfig{
			ASNSource:   application.ASNSourceWhois,
			WhoisServer: consts.DefaultWhoisServer,
			IPInfoURL:   consts.DefaultIPInfoURL,
			IPInfoRate:  consts.DefaultIPInfoRate,
		},
	}
}

// applyConfigDefaults merges config file and environment values into the
// runtime config when the user did not explicitly set the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) error {
	flags := cmd.Flags()

	applyStringDefault(flags, "profile", "profile", func(v string) { cliConfig.Profile = v })
	applyStringDefault(flags, "output", "output", func(v string) { cliConfig.Output = v })
	applyStringDefault(flags, "report-file", "report_file", func(v string) { cliConfig.ReportFile = v })
	applyStringDefault(flags, "report-dir", "report_dir", func(v string) { cliConfig.ReportDir = v })
	applyStringDefault(flags, "", "log_level", func(v string) { cliConfig.LogLevel = v })
	applyBoolDefault(flags, "insecure", "insecure", func(v bool) { cliConfig.Insecure = v })
	applyBoolDefault(flags, "no-progress", "no_progress", func(v bool) { cliConfig.NoProgress = v })

	applyDurationDefault(flags, "", "timeouts.connect", func(v time.Duration) { cliConfig.Timeouts.Connect = v })
	applyDurationDefault(flags, "", "timeouts.tls", func(v time.Duration) { cliConfig.Timeouts.TLS = v })
	applyDurationDefault(flags, "", "timeouts.http", func(v time.Duration) { cliConfig.Timeouts.HTTP = v })
	applyDurationDefault(flags, "", "timeouts.dns", func(v time.Duration) { cliConfig.Timeouts.DNS = v })
	applyDurationDefault(flags, "", "timeouts.icmp", func(v time.Duration) { cliConfig.Timeouts.ICMP = v })
	applyDurationDefault(flags, "timeout-deadline", "timeouts.deadline", func(v time.Duration) { cliConfig.Timeouts.Deadline = v })

	if viper.IsSet("connectivity.ports") {
		cliConfig.Connectivity.Ports = viper.GetIntSlice("connectivity.ports")
	}
	if viper.IsSet("latency.count") {
		cliConfig.Latency.Count = viper.GetInt("latency.count")
	}
	if viper.IsSet("latency.min_rating") {
		cliConfig.Latency.MinRating = viper.GetInt("latency.min_rating")
	}
	applyStringDefault(flags, "rating-preset", "latency.preset", func(v string) { cliConfig.Latency.Preset = v })
	if viper.IsSet("latency.bands") {
		var bands evaluation.RatingBands
		if err := viper.UnmarshalKey("latency.bands", &bands); err != nil {
			return fmt.Errorf("%w: latency.bands: %v", sharedErrors.ErrValidation, err)
		}
		cliConfig.Latency.Bands = bands
	}

	if flag := flags.Lookup("nameserver"); (flag == nil || !flag.Changed) && viper.IsSet("dns.nameservers") {
		cliConfig.DNS.Nameservers = viper.GetStringSlice("dns.nameservers")
	}

	applyStringDefault(flags, "asn-source", "cdn.asn_source", func(v string) { cliConfig.CDN.ASNSource = v })
	applyStringDefault(flags, "", "cdn.whois_server", func(v string) { cliConfig.CDN.WhoisServer = v })
	applyStringDefault(flags, "", "cdn.ipinfo_url", func(v string) { cliConfig.CDN.IPInfoURL = v })
	applyStringDefault(flags, "", "cdn.ipinfo_token", func(v string) { cliConfig.CDN.IPInfoToken = v })
	if viper.IsSet("cdn.ipinfo_rate") {
		cliConfig.CDN.IPInfoRate = viper.GetFloat64("cdn.ipinfo_rate")
	}
	if viper.IsSet("cdn.providers") {
		var providers []checker.Provider
		if err := viper.UnmarshalKey("cdn.providers", &providers); err != nil {
			return fmt.Errorf("%w: cdn.providers: %v", sharedErrors.ErrValidation, err)
		}
		cliConfig.CDN.Providers = providers
	}

	return nil
}

// validate rejects settings the evaluator cannot run with.
func (c *CLIConfig) validate() error {
	switch c.Output {
	case outputText, outputJSON, outputYAML:
	case outputPDF:
		if c.ReportFile == "" {
			return fmt.Errorf("%w: --output pdf requires --report-file", sharedErrors.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: output %q (want text, json, yaml or pdf)", sharedErrors.ErrValidation, c.Output)
	}
	if c.ReportFile != "" {
		if _, err := c.reportPath(); err != nil {
			return fmt.Errorf("%w: %v", sharedErrors.ErrValidation, err)
		}
	}
	if _, err := evaluateapp.LookupProfile(c.Profile); err != nil {
		return err
	}
	for _, port := range c.Connectivity.Ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%w: connectivity port %d", sharedErrors.ErrInvalidPort, port)
		}
	}
	if c.Latency.Count < 1 {
		return fmt.Errorf("%w: latency.count must be positive", sharedErrors.ErrValidation)
	}
	if c.Latency.MinRating < evaluation.FloorRating || c.Latency.MinRating > evaluation.MaxRating {
		return fmt.Errorf("%w: latency.min_rating must be within %d..%d", sharedErrors.ErrValidation, evaluation.FloorRating, evaluation.MaxRating)
	}
	if _, err := c.Latency.bands(); err != nil {
		return err
	}
	switch c.CDN.ASNSource {
	case application.ASNSourceWhois, application.ASNSourceDNS:
	default:
		return fmt.Errorf("%w: asn source %q (want whois or dns)", sharedErrors.ErrValidation, c.CDN.ASNSource)
	}
	return nil
}

// reportPath resolves --report-file against report_dir.
func (c *CLIConfig) reportPath() (string, error) {
	return security.ReportPath(c.ReportDir, c.ReportFile)
}

func (l LatencyConfig) bands() (evaluation.RatingBands, error) {
	if len(l.Bands) > 0 {
		if err := l.Bands.Validate(); err != nil {
			return nil, err
		}
		return l.Bands, nil
	}
	return evaluation.PresetBands(l.Preset)
}

// containerOptions translates the CLI configuration for the application layer.
func (c *CLIConfig) containerOptions(onOutcome func(evaluation.Outcome)) (application.Options, error) {
	profile, err := evaluateapp.LookupProfile(c.Profile)
	if err != nil {
		return application.Options{}, err
	}
	bands, err := c.Latency.bands()
	if err != nil {
		return application.Options{}, err
	}

	policy := evaluation.DefaultPolicy()
	policy.MinRating = c.Latency.MinRating

	return application.Options{
		Profile: profile,
		Policy:  policy,
		Timeouts: application.Timeouts{
			Connect:  c.Timeouts.Connect,
			TLS:      c.Timeouts.TLS,
			HTTP:     c.Timeouts.HTTP,
			DNS:      c.Timeouts.DNS,
			ICMP:     c.Timeouts.ICMP,
			Deadline: c.Timeouts.Deadline,
		},
		Ports:       c.Connectivity.Ports,
		PingCount:   c.Latency.Count,
		Bands:       bands,
		Nameservers: c.DNS.Nameservers,
		Insecure:    c.Insecure,
		UserAgent:   "evaluate/" + Version,
		ASNSource:   c.CDN.ASNSource,
		WhoisServer: c.CDN.WhoisServer,
		IPInfoURL:   c.CDN.IPInfoURL,
		IPInfoToken: c.CDN.IPInfoToken,
		IPInfoRate:  c.CDN.IPInfoRate,
		Providers:   c.CDN.Providers,
		OnOutcome:   onOutcome,
		Logger:      logger,
	}, nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil || name == "" {
		return false
	}
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

func applyStringDefault(flags *pflag.FlagSet, flagName, key string, setter func(string)) {
	if setter == nil || flagChanged(flags, flagName) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetString(key))
}

func applyBoolDefault(flags *pflag.FlagSet, flagName, key string, setter func(bool)) {
	if setter == nil || flagChanged(flags, flagName) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetBool(key))
}

func applyDurationDefault(flags *pflag.FlagSet, flagName, key string, setter func(time.Duration)) {
	if setter == nil || flagChanged(flags, flagName) || !viper.IsSet(key) {
		return
	}
	setter(viper.GetDuration(key))
}
