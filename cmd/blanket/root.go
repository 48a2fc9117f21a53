package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "blanket",
	Short: "Unified LLM client",
	Long:  "Blanket talks to OpenAI, Anthropic, Gemini, xAI, Groq, and custom OpenAI-compatible endpoints through one interface, resolving the provider from the model name.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("model", "m", "gpt-4o-mini", "Model to use")
	rootCmd.PersistentFlags().String("provider", "", "Provider override (inferred from model if empty)")
	rootCmd.PersistentFlags().String("api-key", "", "API key override (default: provider env var)")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL override (for proxies and custom endpoints)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	// Provider API keys commonly live in a local .env during development.
	_ = godotenv.Load()

	viper.SetEnvPrefix("BLANKET")
	viper.AutomaticEnv()
}
