package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"

	"github.com/spetersoncode/gemlink"
	"github.com/spetersoncode/gemlink/client"
	"github.com/spetersoncode/gemlink/config"
	"github.com/spetersoncode/gemlink/retry"
)

// cliConfig holds the global command configuration.
// Priority: flags > GEMLINK_* env vars > defaults. The API key also falls
// back to GEMINI_API_KEY and GOOGLE_API_KEY.
type cliConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	Settings string        `mapstructure:"settings"`
	Models   string        `mapstructure:"models"`
	Model    string        `mapstructure:"model"`
	LogLevel string        `mapstructure:"log_level"`
	Retries  int           `mapstructure:"retries"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// globalFlags maps viper keys to persistent flag names.
var globalFlags = map[string]string{
	"api_key":   "api-key",
	"settings":  "settings",
	"models":    "models",
	"model":     "model",
	"log_level": "log-level",
	"retries":   "retries",
	"timeout":   "timeout",
}

// loadCLIConfig reads .env (if present), then layers env vars under the
// command's flags.
func loadCLIConfig(cmd *cobra.Command) (*cliConfig, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetEnvPrefix("GEMLINK")
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "GEMLINK_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	for key, name := range globalFlags {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}

// newLogger builds a console logger at the given level. Unknown levels are an
// error rather than a silent fallback.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zap.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.OutputPaths = []string{"stderr"}
	return zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
}

// app is the per-invocation wiring shared by all subcommands.
type app struct {
	cfg    *cliConfig
	logger *zap.Logger
	client *client.Client
	retry  retry.Config
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadCLIConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(cfg.Settings)
	if err != nil {
		return nil, err
	}
	catalog := config.DefaultCatalog()
	if cfg.Models != "" {
		if catalog, err = config.LoadCatalog(cfg.Models); err != nil {
			return nil, err
		}
	}

	c, err := client.New(cmd.Context(), client.Config{
		APIKey:   cfg.APIKey,
		Settings: settings,
		Catalog:  catalog,
		Logger:   logger,
	})
	if err != nil {
		if errors.Is(err, gemlink.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY or pass --api-key", err)
		}
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, client: c, retry: retryConfig(cfg.Retries)}, nil
}

func retryConfig(retries int) retry.Config {
	if retries <= 0 {
		return retry.Disabled()
	}
	rc := retry.DefaultConfig()
	rc.MaxAttempts = retries + 1
	return rc
}

// callContext applies the --timeout flag to the command context.
func (a *app) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
	}
	return context.WithCancel(cmd.Context())
}

// options returns the per-call options implied by global flags.
func (a *app) options(extra ...gemlink.Option) []gemlink.Option {
	var opts []gemlink.Option
	if a.cfg.Model != "" {
		opts = append(opts, gemlink.WithModel(a.cfg.Model))
	}
	return append(opts, extra...)
}

// withRetry runs fn under the configured retry policy and logs each backoff.
func withRetry[T any](ctx context.Context, a *app, fn func() (T, error)) (T, error) {
	events := make(chan retry.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			if e.Type == retry.EventRetrying {
				a.logger.Info("rate limited, retrying",
					zap.Int("attempt", e.Attempt),
					zap.Int("max_attempts", e.MaxAttempts),
					zap.Duration("delay", e.Delay),
				)
			}
		}
	}()

	result, err := retry.DoWithEvents(ctx, a.retry, events, fn)
	close(events)
	<-done
	return result, err
}

// loadTools reads tool declarations from a JSON (or JSONC) file holding an
// array of {name, description, parameters}.
func loadTools(path string) ([]gemlink.Tool, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-supplied tools file
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	var tools []gemlink.Tool
	if err := json.Unmarshal(jsonc.ToJSON(data), &tools); err != nil {
		return nil, fmt.Errorf("failed to parse tools file %q: %w", path, err)
	}
	if err := gemlink.ValidateTools(tools); err != nil {
		return nil, err
	}
	return tools, nil
}

// joinArgs turns positional arguments into a prompt.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
