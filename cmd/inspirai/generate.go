package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/abdhe/inspirai/pkg/generator"
	"github.com/abdhe/inspirai/pkg/server"
)

var (
	genTheme  string
	genFormat string
	genTone   string
	genStyle  string
	genWords  int
	genOut    string
	genRemote string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one poem or essay",
	Long: `Generate one poem or essay and print it to stdout.

--out writes the text to a file instead; --out auto picks inspirai-<format>.txt.
--remote sends the request to a running "inspirai serve" over gRPC instead of
calling Gemini directly.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		format, err := generator.ParseFormat(genFormat)
		if err != nil {
			return err
		}
		p := generator.Params{
			Theme:     genTheme,
			Format:    format,
			Tone:      genTone,
			Style:     genStyle,
			WordCount: genWords,
		}.WithDefaults()
		if err := p.Validate(); err != nil {
			return err
		}

		var text string
		if genRemote != "" {
			text, err = generateRemote(cmd.Context(), genRemote, p)
		} else {
			text, err = newGeneratorService(settings).Generate(cmd.Context(), p)
		}
		if err != nil {
			return err
		}
		return writeOutput(cmd, p.Format, text)
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genTheme, "theme", "", "subject of the piece (required)")
	f.StringVar(&genFormat, "format", string(generator.DefaultFormat), "poem or essay")
	f.StringVar(&genTone, "tone", generator.DefaultTone, "casual, formal, creative, humorous or serious")
	f.StringVar(&genStyle, "style", "", "style for the format (default: the format's first style)")
	f.IntVar(&genWords, "words", generator.DefaultWordCount,
		fmt.Sprintf("target word count, %d-%d in steps of %d", generator.MinWordCount, generator.MaxWordCount, generator.WordCountStep))
	f.StringVar(&genOut, "out", "", `write to this file; "auto" uses inspirai-<format>.txt`)
	f.StringVar(&genRemote, "remote", "", "gRPC address of an inspirai server")
	_ = generateCmd.MarkFlagRequired("theme")
}

func generateRemote(ctx context.Context, addr string, p generator.Params) (string, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	return server.GenerateRemote(ctx, conn, p)
}

func writeOutput(cmd *cobra.Command, f generator.Format, text string) error {
	if genOut == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
		return err
	}

	path := genOut
	if path == "auto" {
		path = generator.DownloadName(f)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("saved", "path", path, "bytes", len(text))
	return nil
}
