// Command xrag translates the text columns of medical knowledge-graph tables
// while protecting domain terminology.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/NextAI9707/XRAG/config"
	"github.com/NextAI9707/XRAG/logging"
	"github.com/NextAI9707/XRAG/provider"
	"github.com/NextAI9707/XRAG/report"
	"github.com/NextAI9707/XRAG/resilience"
	"github.com/NextAI9707/XRAG/semtype"
	"github.com/NextAI9707/XRAG/settings"
	"github.com/NextAI9707/XRAG/table"
	"github.com/NextAI9707/XRAG/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	cfgFile string
	verbose bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xrag",
		Short: "Term-aware batch translation of tabular medical data",
		Long: `xrag: term-aware batch translation of tabular medical data.

Translates selected columns of knowledge-graph tables (.xlsx, .csv, .tsv).
Domain terms from a terminology file are substituted before translation,
identical texts are translated once, and cells already written in the
target script are left alone.

Commands:
  translate   Translate table columns
  remap       Replace concept ids with semantic type labels
  init        Write a default .xrag.yaml
  config      Show the effective configuration
  auth        Manage provider API keys

Providers:
  google      Google Translate web endpoint (no key)
  openai      OpenAI or any OpenAI-compatible server (API key)
  gemini      Google Gemini API (API key)
  echo        No translation; terminology substitution only`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")

	root.AddCommand(
		newTranslateCmd(),
		newRemapCmd(),
		newInitCmd(),
		newConfigCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logging.New(os.Stderr, false).Errorf("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "xrag version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Flag binding
// ---------------------------------------------------------------------------

// flagBinding ties a command-line flag to a config key.
type flagBinding struct {
	flag string
	key  string
}

var translateBindings = []flagBinding{
	{"terms", config.KeyTermSourcePath},
	{"columns", config.KeyTargetColumns},
	{"sheet", config.KeySheet},
	{"source-lang", config.KeySourceLang},
	{"target-lang", config.KeyTargetLang},
	{"provider", config.KeyProvider},
	{"model", config.KeyModel},
	{"base-url", config.KeyBaseURL},
	{"api-key", config.KeyAPIKey},
	{"batch-size", config.KeyBatchSize},
	{"max-retries", config.KeyMaxRetries},
	{"retry-delay", config.KeyRetryDelay},
	{"max-concurrent", config.KeyMaxConcurrent},
	{"require-terms", config.KeyRequireTerms},
	{"report", config.KeyReportPath},
	{"timeout", config.KeyRequestTimeout},
	{"transport-retries", config.KeyTransportRetries},
	{"backoff-factor", config.KeyBackoffFactor},
	{"breaker-threshold", config.KeyBreakerThreshold},
	{"breaker-timeout", config.KeyBreakerTimeout},
	{"use-proxy", config.KeyUseProxy},
	{"proxy", config.KeyProxyAddress},
}

var remapBindings = []flagBinding{
	{"map", config.KeySemtypePath},
	{"columns", config.KeySemtypeColumns},
	{"sheet", config.KeySheet},
}

// bindFlags makes flags the highest-priority layer of v. Only flags set
// on the command line override the file and the environment.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings []flagBinding) error {
	for _, b := range bindings {
		f := flags.Lookup(b.flag)
		if f == nil {
			return fmt.Errorf("flag --%s is not defined", b.flag)
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", b.flag, err)
		}
	}
	return nil
}

// loadConfig resolves the effective settings for cmd.
func loadConfig(cmd *cobra.Command, bindings []flagBinding) (config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := bindFlags(v, cmd.Flags(), bindings); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "translate INPUT OUTPUT",
		Short: "Translate table columns",
		Long: `Translate the configured columns of INPUT and write the result to OUTPUT.

Settings come from .xrag.yaml (or --config), XRAG_* environment variables
and the flags below, in increasing priority. Failed batches leave their
cells untranslated; they are listed in the summary and the report.

Examples:
  # Columns 1, 3, 6 and 8 with Google Translate
  xrag translate triples.xlsx triples_zh.xlsx

  # OpenAI with a terminology file and a run report
  xrag translate --provider openai --terms term_base.csv --report run.yaml in.csv out.csv

  # Local OpenAI-compatible server, four batches in flight
  xrag translate --provider openai --base-url http://localhost:11434/v1 --model qwen2.5 --max-concurrent 4 in.tsv out.tsv

  # Terminology substitution only
  xrag translate --dry-run in.csv out.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, translateBindings)
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Provider = provider.Echo
			}
			return runTranslate(cmd.Context(), cfg, args[0], args[1], cmd.ErrOrStderr())
		},
	}

	d := config.Default()
	f := cmd.Flags()

	// Input selection
	f.StringP("terms", "t", d.TermSourcePath, "Terminology file (.csv, .tsv, .xlsx, .yaml, .po)")
	f.IntSliceP("columns", "c", d.TargetColumns, "Zero-based columns to translate")
	f.String("sheet", d.Sheet, "Worksheet of an .xlsx input (default: first sheet)")
	f.Bool("require-terms", d.RequireTerms, "Fail when the terminology file cannot be loaded")

	// Provider selection
	f.String("source-lang", d.SourceLang, "Source language")
	f.String("target-lang", d.TargetLang, "Target language")
	f.StringP("provider", "p", d.Provider, "Translation provider: "+strings.Join(provider.Names(), ", "))
	f.String("model", d.Model, "Model name for openai/gemini (default: provider default)")
	f.String("base-url", d.BaseURL, "API base URL for openai/gemini")
	f.String("api-key", "", "API key (or "+settings.EnvAPIKey+" env var)")

	// Batching
	f.Int("batch-size", d.BatchSize, "Texts per remote call")
	f.Int("max-retries", d.MaxRetries, "Extra attempts per failed batch")
	f.Duration("retry-delay", d.RetryDelay, "Base wait between batch attempts (grows linearly)")
	f.Int("max-concurrent", d.MaxConcurrent, "Batches in flight at once")
	f.String("report", d.ReportPath, "Write a YAML run report to this path")
	f.BoolVar(&dryRun, "dry-run", false, "Substitute terminology only, without calling a provider")

	// Network
	f.Duration("timeout", d.RequestTimeout, "Per-request connect and response-header timeout")
	f.Int("transport-retries", d.TransportRetries, "Retries per HTTP request on connection errors and 5xx")
	f.Duration("backoff-factor", d.BackoffFactor, "First HTTP retry wait (doubles per retry)")
	f.Int("breaker-threshold", d.BreakerThreshold, "Consecutive failed requests that open the circuit (0 = off)")
	f.Duration("breaker-timeout", d.BreakerTimeout, "How long the circuit stays open")
	f.Bool("use-proxy", d.UseProxy, "Send requests through --proxy")
	f.String("proxy", d.ProxyAddress, "HTTP/HTTPS proxy URL")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"google\tGoogle Translate web endpoint (no key)",
			"openai\tOpenAI or compatible server (API key)",
			"gemini\tGoogle Gemini API (API key)",
			"echo\tTerminology substitution only",
		}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		switch p {
		case provider.OpenAI:
			return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"}, cobra.ShellCompDirectiveNoFileComp
		case provider.Gemini:
			return []string{provider.DefaultGeminiModel, "gemini-2.5-pro", "gemini-2.0-flash"}, cobra.ShellCompDirectiveNoFileComp
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	})

	return cmd
}

func runTranslate(ctx context.Context, cfg config.Config, in, out string, w io.Writer) error {
	log := logging.New(w, verbose).WithRunID(report.NewRunID())

	tc := cfg.Transport()
	tc.Logf = log.Debugf
	client, err := resilience.NewClient(tc)
	if err != nil {
		return err
	}

	key, source := settings.ResolveAPIKey(cfg.Provider, cfg.APIKey)
	if provider.NeedsAPIKey(cfg.Provider) && key == "" {
		return fmt.Errorf("provider %s needs an API key: pass --api-key, set %s, or run 'xrag auth set %s'",
			cfg.Provider, settings.EnvAPIKey, cfg.Provider)
	}
	if key != "" {
		log.Debugf("Using %s key %s (from %s)", cfg.Provider, settings.MaskKey(key), source)
	}
	pc := cfg.ProviderConfig(key)
	if pc.BaseURL == "" {
		pc.BaseURL = settings.GetBaseURL(cfg.Provider)
	}
	tr, err := provider.New(ctx, pc, client)
	if err != nil {
		return err
	}

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warnf("Interrupted, saving progress...")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Infof("Translating %s: %s -> %s with %s, columns %v", in, cfg.SourceLang, cfg.TargetLang, cfg.Provider, cfg.TargetColumns)

	summary, err := translate.Run(ctx, translate.Job{
		Input:        in,
		Output:       out,
		Sheet:        cfg.Sheet,
		Columns:      cfg.TargetColumns,
		TermSource:   cfg.TermSourcePath,
		RequireTerms: cfg.RequireTerms,
		SourceLang:   cfg.SourceLang,
		TargetLang:   cfg.TargetLang,
		ProviderName: cfg.Provider,
		ReportPath:   cfg.ReportPath,
		RunID:        log.RunID(),
		Options: translate.Options{
			Translator:    tr,
			BatchSize:     cfg.BatchSize,
			MaxRetries:    cfg.BatchRetries(),
			RetryDelay:    cfg.RetryDelay,
			MaxConcurrent: cfg.MaxConcurrent,
			OnProgress: func(done, total int) {
				log.Infof("  %s %d/%d", progressBar(percent(done, total), 20), done, total)
			},
			OnLog:   log.Infof,
			OnError: log.Errorf,
			OnDebug: log.Debugf,
		},
	})
	if err != nil {
		return err
	}

	printSummary(w, summary)

	switch {
	case summary.Cancelled:
		log.Warnf("Translation interrupted, partial progress saved to %s", out)
	case !summary.OK():
		log.Warnf("%d batch(es) failed, %d text(s) left untranslated", len(summary.Failed), summary.Untranslated())
	default:
		log.Successf("Done: %d cell(s) written to %s", summary.Written, out)
	}
	return nil
}

// printSummary renders the run statistics as a small table.
func printSummary(w io.Writer, s *report.Summary) {
	runID := s.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	fmt.Fprintf(w, "\n%s  (run %s, %s)\n", blue("Translation Summary"), runID, s.Duration)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	fmt.Fprintf(w, "  %-16s %d\n", "Cells scanned", s.Cells)
	fmt.Fprintf(w, "  %-16s %d\n", "Unique texts", s.Candidates)
	fmt.Fprintf(w, "  %-16s %d (%d attempts)\n", "Batches", s.Batches, s.Attempts)
	fmt.Fprintf(w, "  %-16s %d %s\n", "Translated", s.Translated, progressBar(percent(s.Translated, s.Candidates), 20))
	fmt.Fprintf(w, "  %-16s %d\n", "Cells written", s.Written)
	fmt.Fprintf(w, "  %-16s empty %d, number %d, boolean %d, blank %d, target script %d\n", "Skipped",
		s.Skipped.Empty, s.Skipped.Number, s.Skipped.Boolean, s.Skipped.Blank, s.Skipped.TargetScript)
	if len(s.Missing) > 0 {
		fmt.Fprintf(w, "  %-16s %v\n", "Missing columns", s.Missing)
	}
	fmt.Fprintf(w, "  %-16s %d loaded\n", "Terms", s.Terms)
	for i, u := range s.TermUse {
		if i == 5 {
			fmt.Fprintf(w, "  %-16s ... %d more\n", "", len(s.TermUse)-5)
			break
		}
		fmt.Fprintf(w, "  %-16s %s (%d)\n", "", u.Term, u.Cells)
	}
	if len(s.Failed) > 0 {
		fmt.Fprintf(w, "  %-16s %s\n", "Failed batches", red(fmt.Sprint(len(s.Failed))))
		for _, f := range s.Failed {
			fmt.Fprintf(w, "  %-16s #%d %s: %s\n", "", f.Index, f.Fingerprint, f.Error)
		}
	}
	fmt.Fprintln(w)
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

// progressBar renders a colored bar of the given width followed by the
// percentage, clamped to 0..100.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent >= 100:
		bar = green(bar)
	case percent >= 50:
		bar = yellow(bar)
	default:
		bar = red(bar)
	}
	return fmt.Sprintf("%s %3d%%", bar, percent)
}

// ---------------------------------------------------------------------------
// remap
// ---------------------------------------------------------------------------

func newRemapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remap INPUT OUTPUT",
		Short: "Replace concept ids with semantic type labels",
		Long: `Replace concept ids (CIDs) in the given columns with their semantic
type, read from a pipe-delimited CID|STYID|STY file. Cells that are not
known ids are copied unchanged; the header row is never touched.

Examples:
  xrag remap --map SemanticTypes.txt --columns 1,6 triples.xlsx triples_updated.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, remapBindings)
			if err != nil {
				return err
			}
			return runRemap(cfg, args[0], args[1], logging.New(cmd.ErrOrStderr(), verbose))
		},
	}

	d := config.Default()
	cmd.Flags().StringP("map", "m", d.SemtypePath, "Semantic type map (CID|STYID|STY)")
	cmd.Flags().IntSliceP("columns", "c", d.SemtypeColumns, "Zero-based columns holding concept ids")
	cmd.Flags().String("sheet", d.Sheet, "Worksheet of an .xlsx input (default: first sheet)")

	return cmd
}

func runRemap(cfg config.Config, in, out string, log *logging.Logger) error {
	m, err := semtype.Load(cfg.SemtypePath)
	if err != nil {
		return err
	}
	if len(m) == 0 {
		log.Warnf("%s holds no CID|STYID|STY lines", cfg.SemtypePath)
	}
	log.Debugf("Loaded %d semantic types from %s", len(m), cfg.SemtypePath)

	t, err := table.Load(in, cfg.Sheet)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}
	n := semtype.Remap(t, cfg.SemtypeColumns, m)
	if err := table.Save(t, out); err != nil {
		return fmt.Errorf("saving output: %w", err)
	}
	log.Successf("Remapped %d cell(s) in columns %v, saved %s", n, cfg.SemtypeColumns, out)
	return nil
}

// ---------------------------------------------------------------------------
// init / config
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		Long: `Write the default settings, with comments, to ` + config.FileName + `
in the current directory (or the --config path).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.FileName
			}
			if err := config.WriteDefault(path, force); err != nil {
				if !force {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}
			logging.New(cmd.ErrOrStderr(), verbose).Successf("Wrote %s", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the settings after applying file and environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(data))

			key, source := settings.ResolveAPIKey(cfg.Provider, cfg.APIKey)
			switch {
			case key != "":
				fmt.Fprintf(out, "# api key: %s (from %s)\n", settings.MaskKey(key), source)
			case provider.NeedsAPIKey(cfg.Provider):
				fmt.Fprintf(out, "# api key: not set\n")
			}
			return nil
		},
	})
	return cmd
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys for the providers that need one.

Keys are stored in ` + settings.FilePath() + ` (mode 0600).
Lookup order: --api-key, ` + settings.EnvAPIKey + `, OPENAI_API_KEY / GEMINI_API_KEY,
stored key.

Examples:
  xrag auth set openai                                   Prompt for an OpenAI key
  xrag auth set openai --base-url http://localhost:8000/v1
  xrag auth remove gemini                                Remove the Gemini key
  xrag auth remove                                       Remove all keys
  xrag auth list                                         Show stored keys`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// keyedProviders are the providers that take an API key.
func keyedProviders() []string {
	var names []string
	for _, n := range provider.Names() {
		if provider.NeedsAPIKey(n) {
			names = append(names, n)
		}
	}
	return names
}

func checkKeyedProvider(name string) error {
	if !provider.NeedsAPIKey(name) {
		return fmt.Errorf("provider %q takes no API key (choose from: %s)", name, strings.Join(keyedProviders(), ", "))
	}
	return nil
}

func newAuthSetCmd() *cobra.Command {
	var key, baseURL string

	cmd := &cobra.Command{
		Use:       "set PROVIDER",
		Short:     "Store an API key",
		Args:      cobra.ExactArgs(1),
		ValidArgs: keyedProviders(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(args[0])
			if err := checkKeyedProvider(name); err != nil {
				return err
			}
			log := logging.New(cmd.ErrOrStderr(), verbose)

			if key == "" {
				existing := settings.GetAPIKey(name)
				w := cmd.ErrOrStderr()
				if existing != "" {
					fmt.Fprintf(w, "  Current key: %s\n", yellow(settings.MaskKey(existing)))
					fmt.Fprintf(w, "  Enter new key to replace, or press Enter to keep: ")
				} else {
					fmt.Fprintf(w, "  Enter API key: ")
				}

				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					key = strings.TrimSpace(scanner.Text())
				}
				if key == "" {
					if existing == "" {
						return fmt.Errorf("no API key provided")
					}
					if baseURL == "" {
						log.Infof("Keeping existing key")
						return nil
					}
					key = existing
				}
			}

			if err := settings.SetAPIKey(name, key, baseURL); err != nil {
				return fmt.Errorf("saving API key: %w", err)
			}
			log.Successf("%s API key saved", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key (prompted for when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL for openai/gemini")
	return cmd
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "remove [PROVIDER]",
		Aliases:   []string{"rm", "logout"},
		Short:     "Remove stored keys (all when no provider is given)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: keyedProviders(),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(cmd.ErrOrStderr(), verbose)
			if len(args) == 0 {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				log.Successf("All stored keys removed")
				return nil
			}
			name := strings.ToLower(args[0])
			if err := checkKeyedProvider(name); err != nil {
				return err
			}
			if err := settings.Remove(name); err != nil {
				return fmt.Errorf("removing %s key: %w", name, err)
			}
			log.Successf("%s key removed", name)
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored keys and environment overrides",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n%s\n", blue("Stored Credentials"))
			fmt.Fprintln(w, strings.Repeat("─", 60))

			for _, name := range keyedProviders() {
				entry := settings.Get(name)
				if entry == nil || entry.Key == "" {
					fmt.Fprintf(w, "  %-10s %s\n", name, red("not configured"))
					continue
				}
				status := fmt.Sprintf("%s (key: %s)", green("configured"), settings.MaskKey(entry.Key))
				if entry.BaseURL != "" {
					status += fmt.Sprintf("\n  %10s endpoint: %s", "", entry.BaseURL)
				}
				fmt.Fprintf(w, "  %-10s %s\n", name, status)
			}

			fmt.Fprintf(w, "\n  %s\n", yellow("Environment Variables"))
			for _, env := range []string{settings.EnvAPIKey, "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
				if v := os.Getenv(env); v != "" {
					fmt.Fprintf(w, "  %-16s %s\n", env+":", green(settings.MaskKey(v)))
				} else {
					fmt.Fprintf(w, "  %-16s %s\n", env+":", red("not set"))
				}
			}
			fmt.Fprintln(w)
		},
	}
}
