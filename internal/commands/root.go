// Package commands wires the CLI: one invocation reads a statement PDF,
// builds the ledger, and answers a single question about it.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dvloznov/statement-agent/internal/agent"
	"github.com/dvloznov/statement-agent/internal/buildinfo"
	"github.com/dvloznov/statement-agent/internal/config"
	"github.com/dvloznov/statement-agent/internal/extract"
	"github.com/dvloznov/statement-agent/internal/logger"
	"github.com/dvloznov/statement-agent/internal/normalize"
)

const invocationTimeout = 5 * time.Minute

// NewRootCommand creates the root CLI command.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:     "statement-agent <pdf-path> <question...>",
		Short:   "Answer natural-language questions about a bank statement PDF",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		Args:    cobra.MinimumNArgs(2),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, envFile, args[0], strings.Join(args[1:], " "))
		},
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", "", "path to a .env file (defaults to ./.env if present)")

	return rootCmd
}

func run(cmd *cobra.Command, envFile, pdfPath, question string) error {
	log := logger.New().With().Str("run_id", uuid.NewString()).Logger()

	ctx, cancel := context.WithTimeout(cmd.Context(), invocationTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Info().Str("pdf", pdfPath).Str("question", question).Msg("starting invocation")

	pdfBytes, err := extract.ReadStatement(ctx, pdfPath)
	if err != nil {
		return fmt.Errorf("could not read the statement PDF: %w", err)
	}

	doc, err := extract.NewDocAIExtractor(cfg.DocAI).ProcessPDF(ctx, pdfBytes)
	if err != nil {
		var adapterErr *extract.AdapterError
		if errors.As(err, &adapterErr) {
			log.Error().Err(err).Msg("extraction backend failed")
			return fmt.Errorf("the document extraction service could not process this PDF (%s)", adapterErr.Op)
		}
		return err
	}

	normalizer := normalize.New(normalize.Options{
		DateFormats:    cfg.Overrides.DateFormats,
		HeaderSynonyms: cfg.Overrides.HeaderSynonyms,
	})
	l, err := normalizer.Normalize(doc)
	if err != nil {
		var empty *normalize.ExtractionEmptyError
		if errors.As(err, &empty) {
			for _, headers := range empty.RejectedTables {
				log.Warn().Str("headers", headers).Msg("rejected table")
			}
			return errors.New("no transaction table was recognized in this statement; see the log for the tables that were seen")
		}
		return err
	}

	for _, w := range l.Warnings() {
		log.Warn().Str("kind", string(w.Kind)).Msg(w.String())
	}
	log.Info().Int("transactions", l.Len()).Int("warnings", len(l.Warnings())).Msg("ledger built")

	answer, err := agent.New(cfg.ModelName).Answer(ctx, l, question)
	if err != nil {
		log.Error().Err(err).Msg("reasoning loop failed")
		return errors.New("the model could not produce an answer for this question")
	}

	// The answer is the only thing written to stdout.
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
