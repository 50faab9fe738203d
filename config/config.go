// Package config loads xrag run settings.
//
// Values are layered, lowest priority first:
//
//	built-in defaults < .xrag.yaml < XRAG_* environment < command-line flags
//
// Keys are snake_case in the file and the environment (batch_size,
// XRAG_BATCH_SIZE); the CLI binds them to kebab-case flags (--batch-size).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/NextAI9707/XRAG/provider"
	"github.com/NextAI9707/XRAG/resilience"
	"github.com/NextAI9707/XRAG/translate"
)

// FileName is the project config file looked up in the working directory.
const FileName = ".xrag.yaml"

// EnvPrefix prefixes environment overrides (XRAG_BATCH_SIZE, ...).
const EnvPrefix = "XRAG"

// Keys shared by the config file, the environment and the CLI.
const (
	KeyTermSourcePath   = "term_source_path"
	KeyMaxRetries       = "max_retries"
	KeyRequestTimeout   = "request_timeout"
	KeyBatchSize        = "batch_size"
	KeyTargetColumns    = "target_columns"
	KeyUseProxy         = "use_proxy"
	KeyProxyAddress     = "proxy_address"
	KeyRetryDelay       = "retry_delay"
	KeySourceLang       = "source_lang"
	KeyTargetLang       = "target_lang"
	KeyProvider         = "provider"
	KeyModel            = "model"
	KeyBaseURL          = "base_url"
	KeyAPIKey           = "api_key"
	KeyMaxConcurrent    = "max_concurrent"
	KeyTransportRetries = "transport_retries"
	KeyBackoffFactor    = "backoff_factor"
	KeySheet            = "sheet"
	KeyRequireTerms     = "require_terms"
	KeyReportPath       = "report_path"
	KeyBreakerThreshold = "breaker_threshold"
	KeyBreakerTimeout   = "breaker_timeout"
	KeySemtypePath      = "semtype_path"
	KeySemtypeColumns   = "semtype_columns"
)

// Config holds every recognised setting.
type Config struct {
	// TermSourcePath is the terminology file (.csv, .tsv, .xlsx, .yaml, .po).
	TermSourcePath string
	// MaxRetries is the number of extra attempts per failed batch.
	MaxRetries int
	// RequestTimeout bounds connecting and waiting for headers per request.
	RequestTimeout time.Duration
	// BatchSize is the number of texts per remote call.
	BatchSize int
	// TargetColumns are the zero-based columns to translate.
	TargetColumns []int
	UseProxy      bool
	ProxyAddress  string
	// RetryDelay is the base of the linear wait between batch attempts.
	RetryDelay time.Duration

	SourceLang string
	TargetLang string
	Provider   string
	Model      string
	BaseURL    string
	APIKey     string

	MaxConcurrent    int
	TransportRetries int
	BackoffFactor    time.Duration
	Sheet            string
	RequireTerms     bool
	ReportPath       string
	BreakerThreshold int
	BreakerTimeout   time.Duration

	// SemtypePath and SemtypeColumns drive the `remap` command.
	SemtypePath    string
	SemtypeColumns []int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TermSourcePath:   "term_base.csv",
		MaxRetries:       3,
		RequestTimeout:   10 * time.Second,
		BatchSize:        30,
		TargetColumns:    []int{1, 3, 6, 8},
		UseProxy:         false,
		ProxyAddress:     "http://127.0.0.1:7890",
		RetryDelay:       5 * time.Second,
		SourceLang:       "en",
		TargetLang:       "zh-CN",
		Provider:         provider.Google,
		MaxConcurrent:    1,
		TransportRetries: 3,
		BackoffFactor:    300 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
		SemtypePath:      "SemanticTypes.txt",
		SemtypeColumns:   []int{1, 6},
	}
}

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTermSourcePath, d.TermSourcePath)
	v.SetDefault(KeyMaxRetries, d.MaxRetries)
	v.SetDefault(KeyRequestTimeout, d.RequestTimeout)
	v.SetDefault(KeyBatchSize, d.BatchSize)
	v.SetDefault(KeyTargetColumns, d.TargetColumns)
	v.SetDefault(KeyUseProxy, d.UseProxy)
	v.SetDefault(KeyProxyAddress, d.ProxyAddress)
	v.SetDefault(KeyRetryDelay, d.RetryDelay)
	v.SetDefault(KeySourceLang, d.SourceLang)
	v.SetDefault(KeyTargetLang, d.TargetLang)
	v.SetDefault(KeyProvider, d.Provider)
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyBaseURL, d.BaseURL)
	v.SetDefault(KeyAPIKey, d.APIKey)
	v.SetDefault(KeyMaxConcurrent, d.MaxConcurrent)
	v.SetDefault(KeyTransportRetries, d.TransportRetries)
	v.SetDefault(KeyBackoffFactor, d.BackoffFactor)
	v.SetDefault(KeySheet, d.Sheet)
	v.SetDefault(KeyRequireTerms, d.RequireTerms)
	v.SetDefault(KeyReportPath, d.ReportPath)
	v.SetDefault(KeyBreakerThreshold, d.BreakerThreshold)
	v.SetDefault(KeyBreakerTimeout, d.BreakerTimeout)
	v.SetDefault(KeySemtypePath, d.SemtypePath)
	v.SetDefault(KeySemtypeColumns, d.SemtypeColumns)
}

// NewViper returns a viper instance with defaults, the XRAG_* environment
// and the config file applied. An explicit path must exist; otherwise
// .xrag.yaml is looked up in the working directory and may be absent.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", FileName, err)
		}
	}
	return v, nil
}

// Load reads the settings from path (or ./.xrag.yaml) and the environment,
// and validates them.
func Load(path string) (Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var errs []error
	columns := func(key string) []int {
		list, err := intList(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return list
	}
	dur := func(key string) time.Duration {
		d, err := duration(v.Get(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	c := Config{
		TermSourcePath:   v.GetString(KeyTermSourcePath),
		MaxRetries:       v.GetInt(KeyMaxRetries),
		RequestTimeout:   dur(KeyRequestTimeout),
		BatchSize:        v.GetInt(KeyBatchSize),
		TargetColumns:    columns(KeyTargetColumns),
		UseProxy:         v.GetBool(KeyUseProxy),
		ProxyAddress:     v.GetString(KeyProxyAddress),
		RetryDelay:       dur(KeyRetryDelay),
		SourceLang:       v.GetString(KeySourceLang),
		TargetLang:       v.GetString(KeyTargetLang),
		Provider:         strings.ToLower(v.GetString(KeyProvider)),
		Model:            v.GetString(KeyModel),
		BaseURL:          v.GetString(KeyBaseURL),
		APIKey:           v.GetString(KeyAPIKey),
		MaxConcurrent:    v.GetInt(KeyMaxConcurrent),
		TransportRetries: v.GetInt(KeyTransportRetries),
		BackoffFactor:    dur(KeyBackoffFactor),
		Sheet:            v.GetString(KeySheet),
		RequireTerms:     v.GetBool(KeyRequireTerms),
		ReportPath:       v.GetString(KeyReportPath),
		BreakerThreshold: v.GetInt(KeyBreakerThreshold),
		BreakerTimeout:   dur(KeyBreakerTimeout),
		SemtypePath:      v.GetString(KeySemtypePath),
		SemtypeColumns:   columns(KeySemtypeColumns),
	}
	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}
	return c, c.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyBatchSize, c.BatchSize))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyMaxRetries, c.MaxRetries))
	}
	if c.TransportRetries < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyTransportRetries, c.TransportRetries))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyMaxConcurrent, c.MaxConcurrent))
	}
	if c.BreakerThreshold < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyBreakerThreshold, c.BreakerThreshold))
	}
	if len(c.TargetColumns) == 0 {
		errs = append(errs, fmt.Errorf("%s must list at least one column", KeyTargetColumns))
	}
	for _, col := range c.TargetColumns {
		if col < 0 {
			errs = append(errs, fmt.Errorf("%s: negative column %d", KeyTargetColumns, col))
		}
	}
	for _, col := range c.SemtypeColumns {
		if col < 0 {
			errs = append(errs, fmt.Errorf("%s: negative column %d", KeySemtypeColumns, col))
		}
	}
	if c.RequestTimeout < 0 || c.RetryDelay < 0 || c.BackoffFactor < 0 || c.BreakerTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.UseProxy && strings.TrimSpace(c.ProxyAddress) == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", KeyProxyAddress, KeyUseProxy))
	}
	if !knownProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("unknown %s %q (available: %s)", KeyProvider, c.Provider, strings.Join(provider.Names(), ", ")))
	}
	return errors.Join(errs...)
}

func knownProvider(name string) bool {
	if name == "" {
		return true
	}
	for _, n := range provider.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Transport maps the settings onto the HTTP resilience layer.
func (c Config) Transport() resilience.Config {
	rc := resilience.DefaultConfig()
	rc.MaxRetries = c.TransportRetries
	rc.BackoffFactor = c.BackoffFactor
	rc.Timeout = c.RequestTimeout
	rc.UseProxy = c.UseProxy
	rc.ProxyURL = c.ProxyAddress
	rc.BreakerThreshold = uint32(c.BreakerThreshold)
	rc.BreakerTimeout = c.BreakerTimeout
	return rc
}

// ProviderConfig maps the settings onto a translation provider. apiKey is
// the resolved key, which may come from outside the config.
func (c Config) ProviderConfig(apiKey string) provider.Config {
	return provider.Config{
		Name:       c.Provider,
		SourceLang: c.SourceLang,
		TargetLang: c.TargetLang,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		APIKey:     apiKey,
	}
}

// BatchRetries converts max_retries to the batch translator's convention,
// where zero selects the default and a negative value disables retries.
func (c Config) BatchRetries() int {
	if c.MaxRetries == 0 {
		return translate.NoRetries
	}
	return c.MaxRetries
}

// intList accepts the shapes a column list takes across layers: a YAML
// sequence, a flag's []int, or an environment string "1,3,6" / "1 3 6".
func intList(raw any) ([]int, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []int:
		return append([]int(nil), v...), nil
	case int:
		return []int{v}, nil
	case []string:
		return parseInts(v)
	case string:
		return parseInts(strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '[' || r == ']'
		}))
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				if n != float64(int(n)) {
					return nil, fmt.Errorf("%v is not a column index", n)
				}
				out = append(out, int(n))
			case string:
				i, err := strconv.Atoi(strings.TrimSpace(n))
				if err != nil {
					return nil, fmt.Errorf("%q is not a column index", n)
				}
				out = append(out, i)
			default:
				return nil, fmt.Errorf("%v is not a column index", item)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %v", raw)
}

func parseInts(fields []string) ([]int, error) {
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a column index", f)
		}
		out = append(out, i)
	}
	return out, nil
}

// duration reads "10s"-style strings; bare numbers are seconds.
func duration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		return d, nil
	}
	return 0, fmt.Errorf("invalid duration %v", raw)
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Encode renders c as a commented .xrag.yaml document. The API key is never
// written.
func Encode(c Config) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key, comment string, value *yaml.Node) {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, HeadComment: comment},
			value)
	}

	add(KeyTermSourcePath, "Terminology file: .csv/.tsv/.xlsx with source,target columns, .yaml or .po", str(c.TermSourcePath))
	add(KeyTargetColumns, "Zero-based columns to translate (row 0 is the header)", ints(c.TargetColumns))
	add(KeySheet, "Worksheet of an .xlsx input (empty = first sheet)", str(c.Sheet))
	add(KeySourceLang, "Languages", str(c.SourceLang))
	add(KeyTargetLang, "", str(c.TargetLang))
	add(KeyProvider, "Translation provider: "+strings.Join(provider.Names(), ", "), str(c.Provider))
	add(KeyModel, "Model for openai/gemini (empty = provider default)", str(c.Model))
	add(KeyBaseURL, "OpenAI-compatible or Gemini server URL", str(c.BaseURL))
	add(KeyBatchSize, "Texts per remote call", num(c.BatchSize))
	add(KeyMaxRetries, "Extra attempts per failed batch; waits are 1x, 2x, ... retry_delay", num(c.MaxRetries))
	add(KeyRetryDelay, "", str(c.RetryDelay.String()))
	add(KeyMaxConcurrent, "Batches in flight at once", num(c.MaxConcurrent))
	add(KeyRequireTerms, "Fail the run when the terminology file cannot be loaded", boolean(c.RequireTerms))
	add(KeyReportPath, "YAML run report (empty = none)", str(c.ReportPath))
	add(KeyRequestTimeout, "HTTP transport", str(c.RequestTimeout.String()))
	add(KeyTransportRetries, "", num(c.TransportRetries))
	add(KeyBackoffFactor, "", str(c.BackoffFactor.String()))
	add(KeyBreakerThreshold, "Consecutive failed requests that open the circuit (0 = off)", num(c.BreakerThreshold))
	add(KeyBreakerTimeout, "", str(c.BreakerTimeout.String()))
	add(KeyUseProxy, "", boolean(c.UseProxy))
	add(KeyProxyAddress, "", str(c.ProxyAddress))
	add(KeySemtypePath, "Semantic type map (CID|STYID|STY) for `xrag remap`", str(c.SemtypePath))
	add(KeySemtypeColumns, "", ints(c.SemtypeColumns))

	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{m}}
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return []byte(b.String()), nil
}

// WriteDefault writes the default settings to path. An existing file is
// kept unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := Encode(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func num(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func boolean(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func ints(list []int) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
	for _, i := range list {
		seq.Content = append(seq.Content, num(i))
	}
	return seq
}
