package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Epistemic-Technology/pension-mcp/internal/config"
	"github.com/Epistemic-Technology/pension-mcp/internal/export"
	"github.com/Epistemic-Technology/pension-mcp/internal/llm"
	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
	"github.com/Epistemic-Technology/pension-mcp/internal/operations"
	"github.com/Epistemic-Technology/pension-mcp/models"
)

type outputFlags struct {
	format string
	output string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var out outputFlags
	var source models.SourceInfo

	cmd := &cobra.Command{
		Use:   "pension-extract [statement.pdf | statement.txt | -]",
		Short: "Extract and cross-check the tables of a pension fund statement",
		Long: "Reads an annual pension fund statement, extracts tables A to E, repairs them and " +
			"checks the deposits of table B against the deposit summary of table E.\n" +
			"Use - to read the statement from standard input.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			var raw []byte
			if len(args) == 1 {
				if args[0] == "-" {
					if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
						return fmt.Errorf("read stdin: %w", err)
					}
				} else {
					source.Path = args[0]
				}
			}

			doc, err := operations.LoadDocument(cmd.Context(), source, raw)
			if err != nil {
				return err
			}
			if int64(len(doc.Data)) > cfg.MaxFileSize {
				return fmt.Errorf("statement is %d bytes, above the %d byte limit", len(doc.Data), cfg.MaxFileSize)
			}

			strategy, err := operations.ParseStrategy(cfg.Strategy)
			if err != nil {
				return err
			}
			var oracle llm.Oracle
			if strategy.NeedsOracle() {
				oracle = llm.NewOpenAIOracle(cfg.OpenAIAPIKey, cfg.Model, log)
			}

			opts := cfg.PipelineOptions()
			candidates, err := operations.NewSource(strategy, opts, oracle, log)
			if err != nil {
				return err
			}
			report, err := operations.NewPipeline(candidates, opts, log).Run(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return write(cmd, report, out)
		},
	}

	config.RegisterFlags(cmd.PersistentFlags(), config.DefaultConfig())
	cmd.PersistentFlags().StringVarP(&out.format, "format", "f", export.FormatJSON, "Output format: json, markdown or html")
	cmd.PersistentFlags().StringVarP(&out.output, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVar(&source.URL, "url", "", "Download the statement from this URL")
	cmd.Flags().StringVar(&source.ZoteroID, "zotero-id", "", "Fetch the statement attachment with this Zotero key")

	cmd.AddCommand(newRepairCommand(&out))
	return cmd
}

// newRepairCommand re-runs repair and validation over table JSON that a
// language model produced earlier.
func newRepairCommand(out *outputFlags) *cobra.Command {
	return &cobra.Command{
		Use:          "repair [model-output.json | -]",
		Short:        "Repair and cross-check previously extracted table JSON",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read model output: %w", err)
			}

			report, err := operations.NewPipeline(nil, cfg.PipelineOptions(), log).RepairRaw(string(data))
			if err != nil {
				return err
			}
			return write(cmd, report, *out)
		},
	}
}

func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(logger.LogConfig{Output: "stderr", Level: cfg.LogLevel})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func write(cmd *cobra.Command, report *models.Report, out outputFlags) error {
	rendered, err := export.Render(out.format, report)
	if err != nil {
		return err
	}
	if out.output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}
	if err := os.WriteFile(out.output, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out.output, err)
	}
	return nil
}
