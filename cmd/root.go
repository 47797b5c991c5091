package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/interview-rehearsal/internal/store"
)

const (
	app = "interview-rehearsal"

	defaultCachePath = "question_cache.json"
)

type Config struct {
	Cache    store.Config    `mapstructure:"cache"`
	Backends *BackendsConfig `mapstructure:"backends"`
	Metrics  *MetricsConfig  `mapstructure:"metrics"`
	// KeyFiles are provider-wide API key files used by backends that set no key of their own.
	KeyFiles map[string]string `mapstructure:"api-key-files"`
}

type BackendsConfig struct {
	Timeout      time.Duration   `mapstructure:"timeout"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Generation   []BackendConfig `mapstructure:"generation" validate:"dive"`
	Evaluation   []BackendConfig `mapstructure:"evaluation" validate:"dive"`
}

type BackendConfig struct {
	Provider          string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	Model             string `mapstructure:"model" validate:"required"`
	BaseURL           string `mapstructure:"base-url" validate:"omitempty,url"`
	APIKey            string `mapstructure:"api-key"`
	APIKeyFile        string `mapstructure:"api-key-file"`
	RequestsPerMinute int    `mapstructure:"requests-per-minute" validate:"gte=0"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "interview-rehearsal generates interview questions from a resume and grades your answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command. Cancelling ctx abandons in-flight
// backend calls.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	if err := viper.BindEnv("api-key-files.gemini", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("api-key-files.openai", "OPENAI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding OPENAI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("cache.driver", store.DriverFile)
	viper.SetDefault("cache.path", defaultCachePath)
	viper.SetDefault("backends.timeout", "60s")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-rehearsal.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("cache-driver", "", "cache store: file, sqlite, badger or memory")
	rootCmd.PersistentFlags().String("cache-path", "", "cache store location")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("cache.driver", rootCmd.PersistentFlags().Lookup("cache-driver"))
	viper.BindPFlag("cache.path", rootCmd.PersistentFlags().Lookup("cache-path"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; defaults and environment are enough to run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Backends == nil {
		config.Backends = &BackendsConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
