package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meysamhadeli/repodoc/constants/lipgloss"
	"github.com/meysamhadeli/repodoc/providers"
)

// Config represents the structure of the configuration file.
type Config struct {
	Version              string                      `mapstructure:"version"`
	Theme                string                      `mapstructure:"theme"`
	DatabaseURL          string                      `mapstructure:"database_url"`
	TemplateVersion      string                      `mapstructure:"template_version"`
	FullRebuildThreshold float64                     `mapstructure:"full_rebuild_threshold"`
	MaxConcurrentCalls   int                         `mapstructure:"max_concurrent_calls"`
	MaxAttempts          int                         `mapstructure:"max_attempts"`
	CallTimeoutSeconds   int                         `mapstructure:"call_timeout_seconds"`
	BackoffSeconds       int                         `mapstructure:"backoff_seconds"`
	AIProviderConfig     *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values.
var DefaultConfig = Config{
	Version:              "0.3.0",
	Theme:                "dracula",
	TemplateVersion:      "v4",
	FullRebuildThreshold: 0.5,
	MaxConcurrentCalls:   4,
	MaxAttempts:          3,
	CallTimeoutSeconds:   60,
	BackoffSeconds:       1,
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		Model:    "gpt-4o-mini",
	},
}

// cfgFile holds the path to the configuration file (set via CLI).
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and
// environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		viper.SetConfigName("repodoc-config")
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			_ = viper.ReadInConfig()
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("database_url", DefaultConfig.DatabaseURL)
	viper.SetDefault("template_version", DefaultConfig.TemplateVersion)
	viper.SetDefault("full_rebuild_threshold", DefaultConfig.FullRebuildThreshold)
	viper.SetDefault("max_concurrent_calls", DefaultConfig.MaxConcurrentCalls)
	viper.SetDefault("max_attempts", DefaultConfig.MaxAttempts)
	viper.SetDefault("call_timeout_seconds", DefaultConfig.CallTimeoutSeconds)
	viper.SetDefault("backoff_seconds", DefaultConfig.BackoffSeconds)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.max_tokens", DefaultConfig.AIProviderConfig.MaxTokens)
}

// bindEnv explicitly binds environment variables to configuration keys.
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("database_url", "DATABASE_URL")
	_ = viper.BindEnv("template_version", "TEMPLATE_VERSION")
	_ = viper.BindEnv("full_rebuild_threshold", "FULL_REBUILD_THRESHOLD")
	_ = viper.BindEnv("max_concurrent_calls", "MAX_CONCURRENT_CALLS")
	_ = viper.BindEnv("max_attempts", "MAX_ATTEMPTS")
	_ = viper.BindEnv("call_timeout_seconds", "CALL_TIMEOUT_SECONDS")
	_ = viper.BindEnv("backoff_seconds", "BACKOFF_SECONDS")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.api_key", "API_KEY")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database_url"))
	_ = viper.BindPFlag("template_version", rootCmd.PersistentFlags().Lookup("template_version"))
	_ = viper.BindPFlag("full_rebuild_threshold", rootCmd.PersistentFlags().Lookup("full_rebuild_threshold"))
	_ = viper.BindPFlag("max_concurrent_calls", rootCmd.PersistentFlags().Lookup("max_concurrent_calls"))
	_ = viper.BindPFlag("max_attempts", rootCmd.PersistentFlags().Lookup("max_attempts"))
	_ = viper.BindPFlag("ai_provider_config.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("ai_provider_config.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for rendering markdown output. (e.g., 'dracula', 'light', 'dark')")
	rootCmd.PersistentFlags().String("database_url", DefaultConfig.DatabaseURL, "PostgreSQL connection string; runs use in-memory storage when empty.")
	rootCmd.PersistentFlags().String("template_version", DefaultConfig.TemplateVersion, "Prompt template version; bumping it invalidates cached summaries and documents.")
	rootCmd.PersistentFlags().Float64("full_rebuild_threshold", DefaultConfig.FullRebuildThreshold, "Changed-file ratio at which an incremental run becomes a full rebuild.")
	rootCmd.PersistentFlags().Int("max_concurrent_calls", DefaultConfig.MaxConcurrentCalls, "Maximum number of in-flight text-generation calls.")
	rootCmd.PersistentFlags().Int("max_attempts", DefaultConfig.MaxAttempts, "Maximum attempts per text-generation call, including retries.")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'openai', 'mock').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of AI Provider (e.g., default is 'https://api.openai.com/v1').")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'gpt-4o-mini'.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
}
