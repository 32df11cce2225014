// promptdesk is the command-line driver around the ingestion and dispatch
// pipeline: one prompt, an optional primary file, optional context files, and
// an optional directory batch, against any of the supported providers.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promptdesk/promptdesk/internal/config"
	"github.com/promptdesk/promptdesk/pkg/dispatch"
	"github.com/promptdesk/promptdesk/pkg/imaging"
	"github.com/promptdesk/promptdesk/pkg/ingest"
	"github.com/promptdesk/promptdesk/pkg/session"
)

var version = "dev"

var (
	flagProvider string
	flagModel    string
	flagFile     string
	flagContext  []string
	flagDir      string
	flagExport   string
)

var rootCmd = &cobra.Command{
	Use:   "promptdesk",
	Short: "Send prompts with documents, images, and audio to LLM providers",
}

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send a one-shot prompt, optionally with a file, context files, or a whole directory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(*cobra.Command, []string) {
		fmt.Println("promptdesk", version)
	},
}

func init() {
	askCmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "provider: openai, anthropic, gemini")
	askCmd.Flags().StringVarP(&flagModel, "model", "m", "", "model identifier")
	askCmd.Flags().StringVarP(&flagFile, "file", "f", "", "primary file to attach")
	askCmd.Flags().StringArrayVarP(&flagContext, "context", "c", nil, "context file (repeatable)")
	askCmd.Flags().StringVarP(&flagDir, "dir", "d", "", "run the prompt against every supported file in a directory")
	askCmd.Flags().StringVarP(&flagExport, "export", "o", "", "write an HTML transcript to this path")
	rootCmd.AddCommand(askCmd, versionCmd)
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	config.InitLogger(cfg)
	defer func() { _ = zap.L().Sync() }()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	prompt := strings.Join(args, " ")

	provider := dispatch.Provider(cfg.Provider)
	if flagProvider != "" {
		provider = dispatch.Provider(flagProvider)
	}
	model := cfg.Model
	if flagModel != "" {
		model = flagModel
	}
	if flagDir != "" && flagFile != "" {
		return fmt.Errorf("--dir and --file are mutually exclusive")
	}

	ingestor := ingest.New()
	ingestor.MaxFileSize = cfg.MaxFileSize
	dispatcher := dispatch.New(ingestor)

	if flagDir != "" {
		return runBatch(cmd.Context(), cfg, dispatcher, provider, model, prompt)
	}

	var history session.History
	resp := dispatchWithTimeout(cmd.Context(), cfg, dispatcher, dispatch.Request{
		Provider:     provider,
		Model:        model,
		Prompt:       prompt,
		PrimaryFile:  flagFile,
		ContextFiles: flagContext,
	})
	history.AddText(prompt)
	recordAndPrint(&history, resp)

	if flagExport != "" {
		html := session.ExportHTML("PromptDesk session", history.Items())
		if err := os.WriteFile(flagExport, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
		fmt.Fprintln(os.Stderr, "transcript written to", flagExport)
	}
	return nil
}

// runBatch processes every supported file in the directory against the same
// prompt, one file at a time. A failed file renders into its own section and
// never stops the loop.
func runBatch(ctx context.Context, cfg *config.Config, d *dispatch.Dispatcher,
	provider dispatch.Provider, model, prompt string) error {

	files, err := ingest.ListSupported(flagDir)
	if err != nil {
		return fmt.Errorf("failed to list directory: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported files in %s", flagDir)
	}

	var sections []session.FileSection
	for _, file := range files {
		resp := dispatchWithTimeout(ctx, cfg, d, dispatch.Request{
			Provider:     provider,
			Model:        model,
			Prompt:       prompt,
			PrimaryFile:  file,
			ContextFiles: flagContext,
		})

		name := filepath.Base(file)
		fmt.Printf("=== %s ===\n", name)
		var fileHistory session.History
		fileHistory.AddText(prompt)
		recordAndPrint(&fileHistory, resp)
		sections = append(sections, session.FileSection{Name: name, Items: fileHistory.Items()})
	}

	if flagExport != "" {
		html := session.ExportBatchHTML("PromptDesk batch run", sections)
		if err := os.WriteFile(flagExport, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
		fmt.Fprintln(os.Stderr, "transcript written to", flagExport)
	}
	return nil
}

func dispatchWithTimeout(ctx context.Context, cfg *config.Config, d *dispatch.Dispatcher,
	req dispatch.Request) dispatch.Response {

	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	defer cancel()
	return d.Dispatch(callCtx, req)
}

func recordAndPrint(history *session.History, resp dispatch.Response) {
	switch resp.Kind {
	case dispatch.ResponseImage:
		img, err := imaging.Normalize(resp.Image, true)
		if err != nil {
			fmt.Println("[received an image that could not be decoded]")
			return
		}
		history.AddImage(img)
		path := fmt.Sprintf("generated-%d.png", history.Len())
		if err := os.WriteFile(path, resp.Image, 0o644); err != nil {
			fmt.Println("[failed to save generated image]")
			return
		}
		fmt.Println("[image saved to", path+"]")
	default:
		history.AddText(resp.Text)
		fmt.Println(resp.Text)
	}
}
