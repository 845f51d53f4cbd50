package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"dex-spillover-lab/internal/ingestion"
	"dex-spillover-lab/internal/orchestrator"
	"dex-spillover-lab/internal/reporting"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build the feature tables of every reference variant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			stopMetrics := e.serveMetrics()
			defer stopMetrics()

			orch, closeStores, err := e.orchestrator(cmd)
			if err != nil {
				return err
			}
			defer closeStores()

			result, err := orch.Run(cmd.Context())
			e.metrics.RecordRun("run", err)
			if err != nil {
				return fmt.Errorf("pipeline failed: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderText(result.Report))
			for _, f := range result.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newHorizonsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "horizons",
		Short: "Build the horizon tables and run the consistency self-check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			stopMetrics := e.serveMetrics()
			defer stopMetrics()

			orch, closeStores, err := e.orchestrator(cmd)
			if err != nil {
				return err
			}
			defer closeStores()

			result, err := orch.RunHorizons(cmd.Context())
			e.metrics.RecordRun("horizons", err)
			if err != nil {
				return fmt.Errorf("horizon build failed: %w", err)
			}

			for _, v := range result.Variants {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n", v, len(result.Tables[v]))
			}
			return nil
		},
	}
}

// orchestrator opens the configured stores and builds an orchestrator over the CSV inputs.
func (e *env) orchestrator(cmd *cobra.Command) (*orchestrator.Orchestrator, func(), error) {
	stores, err := orchestrator.OpenStores(cmd.Context(), e.cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	closeStores := func() {
		if err := stores.Close(); err != nil {
			e.logger.Error("failed to close stores", slog.String("err", err.Error()))
		}
	}

	sources := orchestrator.Sources{
		DEX:      &ingestion.CSVDEXSource{Path: e.cfg.Input.DEXPath},
		Metadata: &ingestion.CSVMetadataSource{Path: e.cfg.Input.MetadataPath},
	}
	if e.cfg.Input.CEXPath != "" {
		sources.CEX = &ingestion.CSVCEXSource{Path: e.cfg.Input.CEXPath}
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Config:  e.cfg,
		Sources: sources,
		Stores:  stores,
		Logger:  e.logger,
		Metrics: e.metrics,
	})
	if err != nil {
		closeStores()
		return nil, nil, err
	}
	return orch, closeStores, nil
}
