package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/enhance"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/pipeline"
	"github.com/jonathan/resume-builder/internal/types"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Enhance a piece of text or a resume document",
	Long: `Enhance a single piece of text (--text) or one section of a resume JSON document (--resume).
Keys are read from GEMINI_PRIMARY_KEY / GEMINI_API_KEY and GEMINI_SECONDARY_KEY unless given as flags.
Values in --config are used for anything not set on the command line.`,
	Example: `  resume_builder enhance --text "Led a team" --section experience --job-title "Engineering Manager"
  resume_builder enhance --resume resume.json --section full --out enhanced.json --verbose`,
	RunE: runEnhance,
}

var enhanceFlags config.Config

var enhanceConfigFile string

func init() {
	f := enhanceCmd.Flags()
	f.StringVarP(&enhanceConfigFile, "config", "c", "", "Path to a JSON config file")
	f.StringVarP(&enhanceFlags.Resume, "resume", "r", "", "Path to a resume JSON document")
	f.StringVarP(&enhanceFlags.Text, "text", "t", "", "Text to enhance")
	f.StringVarP(&enhanceFlags.Section, "section", "s", "", "Section type ("+types.SectionNames()+")")
	f.StringVar(&enhanceFlags.JobTitle, "job-title", "", "Target job title")
	f.StringVar(&enhanceFlags.Industry, "industry", "", "Target industry")
	f.StringVar(&enhanceFlags.APIKey, "api-key", "", "Primary Gemini API key")
	f.StringVar(&enhanceFlags.FallbackAPIKey, "fallback-api-key", "", "Secondary Gemini API key")
	f.StringVar(&enhanceFlags.Model, "model", "", "Gemini model name")
	f.StringVarP(&enhanceFlags.Output, "out", "o", "", "Write the result to this file instead of stdout")
	f.BoolVarP(&enhanceFlags.Verbose, "verbose", "v", false, "Print status transitions and progress to stderr")

	rootCmd.AddCommand(enhanceCmd)
}

// resolveEnhanceConfig merges flags over the config file over the environment.
func resolveEnhanceConfig(flags config.Config, configFile string, env *config.ServerConfig) (config.Config, error) {
	cfg := flags
	if configFile != "" {
		fileCfg, err := config.LoadConfig(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
		cfg.Verbose = flags.Verbose || fileCfg.Verbose
	}
	cfg = cfg.MergeWithDefaults(config.Config{
		APIKey:         env.PrimaryKey(),
		FallbackAPIKey: env.GeminiSecondaryKey,
		Model:          env.Model,
	})

	if cfg.Text == "" && cfg.Resume == "" {
		return cfg, fmt.Errorf("must provide either --text or --resume")
	}
	if cfg.Section == "" {
		cfg.Section = string(types.SectionSummary)
		if cfg.Resume != "" {
			cfg.Section = string(types.SectionFull)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runEnhance(cmd *cobra.Command, _ []string) error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	cfg, err := resolveEnhanceConfig(enhanceFlags, enhanceConfigFile, env)
	if err != nil {
		return err
	}

	llmConfig := env.LLMConfig().WithModel(cfg.Model)
	enhancer := enhance.New(llm.NewCaller(llmConfig, nil), llmConfig,
		enhance.Keys{Primary: cfg.APIKey, Fallback: cfg.FallbackAPIKey},
		enhance.WithBackoff(env.FailoverBackoff))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return enhanceWith(ctx, enhancer, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// enhanceWith runs one CLI enhancement. Results go to cfg.Output or out; verbose output goes to errOut.
func enhanceWith(ctx context.Context, enhancer enhance.TextEnhancer, cfg config.Config, out, errOut io.Writer) error {
	section, err := types.ParseSectionType(cfg.Section)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(errOut)
	var observer enhance.StatusObserver
	if cfg.Verbose {
		observer = enhance.StatusFunc(printer.PrintStatus)
	}

	if cfg.Text != "" {
		result, err := enhancer.EnhanceText(ctx, types.EnhancementRequest{
			SourceText:  cfg.Text,
			SectionType: section,
			JobTitle:    cfg.JobTitle,
			Industry:    cfg.Industry,
		}, observer)
		if err != nil {
			return fmt.Errorf("enhancement failed: %w", err)
		}
		if cfg.Verbose {
			printer.PrintEnhancedText(section, cfg.Text, result.Text)
		}
		return writeOutput(cfg.Output, out, []byte(result.Text+"\n"))
	}

	data, err := os.ReadFile(cfg.Resume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	resume, err := pipeline.DecodeResume(data)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		JobTitle: cfg.JobTitle,
		Industry: cfg.Industry,
		Observer: observer,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			printer.PrintProgress(event.Completed, event.Total, event.Message)
		}
	}

	result, dispatchErr := pipeline.NewDispatcher(enhancer).Enhance(ctx, section, resume, opts)
	if cfg.Verbose {
		printer.PrintResumeSummary(resume, result.EnhancedSections)
	}

	// Sections finished before a failure are still written out
	encoded, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode resume: %w", err)
	}
	if len(result.EnhancedSections) > 0 || dispatchErr == nil {
		if err := writeOutput(cfg.Output, out, append(encoded, '\n')); err != nil {
			return err
		}
	}
	if dispatchErr != nil {
		return fmt.Errorf("enhancement failed: %w", dispatchErr)
	}
	return nil
}

func writeOutput(path string, out io.Writer, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
