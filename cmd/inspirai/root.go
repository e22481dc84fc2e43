package main

import (
	"github.com/spf13/cobra"

	"github.com/abdhe/inspirai/pkg/config"
	"github.com/abdhe/inspirai/pkg/generator"
	"github.com/abdhe/inspirai/pkg/logger"
	"github.com/abdhe/inspirai/pkg/provider"
)

// Version is set at build time.
var Version = "dev"

var (
	envFileFlag    string
	configFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "inspirai",
	Short: "Generate poems and essays with Gemini",
	Long: `inspirai turns a theme, format, tone, style and word count into a prompt for
Gemini and returns the generated poem or essay.

COMMANDS:
  serve       Run the HTTP and gRPC APIs
  generate    Generate one piece and print or save it

CONFIGURATION:
  Precedence: environment > --config YAML > defaults.
  --env loads a .env file into the environment first; existing variables win.
  The Gemini key is read from GEMINI_API_KEY on every request.

EXAMPLES:
  inspirai generate --theme autumn --style haiku --words 100
  inspirai generate --theme "remote work" --format essay --style persuasive --out auto
  inspirai serve --config configs/inspirai.yaml`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env", ".env", "environment file to load")
	rootCmd.PersistentFlags().StringVar(&configFileFlag, "config", "", "YAML settings file")

	rootCmd.AddCommand(serveCmd, generateCmd)
}

// loadSettings reads settings and initializes logging from them. Logs go to
// the command's stderr so stdout carries only generated text.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load(envFileFlag, configFileFlag)
	if err != nil {
		return nil, err
	}
	logger.Init(cmd.ErrOrStderr(), settings.Log.Level, settings.Log.Format)
	return settings, nil
}

func newGeneratorService(s *config.Settings) *generator.Service {
	return generator.NewService(generator.Config{
		Resolver:  config.NewResolver(),
		Transport: provider.NewHTTPTransport(nil),
		BaseURL:   s.Gemini.BaseURL,
		Model:     s.Gemini.Model,
	})
}
