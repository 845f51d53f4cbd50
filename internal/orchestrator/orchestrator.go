// Package orchestrator runs the dataset build end to end.
// Flow: ingestion → fusion → span filter → reduction → chains → intervals →
// spillover → horizons → features → persistence → reporting
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"dex-spillover-lab/internal/chain"
	"dex-spillover-lab/internal/config"
	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/features"
	"dex-spillover-lab/internal/horizon"
	"dex-spillover-lab/internal/ingestion"
	"dex-spillover-lab/internal/interval"
	"dex-spillover-lab/internal/logger"
	"dex-spillover-lab/internal/normalization"
	"dex-spillover-lab/internal/observability"
	"dex-spillover-lab/internal/reporting"
	"dex-spillover-lab/internal/spillover"
	"dex-spillover-lab/internal/storage"
)

// Stage names used in logs and metrics.
const (
	StageIngest     = "ingest"
	StageFusion     = "fusion"
	StageSpan       = "span_filter"
	StagePools      = "pool_filter"
	StageReduce     = "reduce"
	StageChains     = "chains"
	StageIntervals  = "intervals"
	StageSpillover  = "spillover"
	StageHorizons   = "horizons"
	StageFeatures   = "features"
	StagePersist    = "persist"
	StageReport     = "report"
	stageCEXBars    = "cex_bars"
	stageCEXAligned = "cex_alignment"
)

// ReportFileName is the Markdown summary written next to the feature files.
const ReportFileName = "run_report.md"

// Sources are the three input tables. CEX is optional; without it every
// spillover value is missing.
type Sources struct {
	DEX      ingestion.DEXSource
	Metadata ingestion.MetadataSource
	CEX      ingestion.CEXSource
}

// Options for creating Orchestrator.
type Options struct {
	Config  config.Config
	Sources Sources
	Stores  *Stores
	Logger  *slog.Logger           // nil discards
	Metrics *observability.Metrics // nil records nothing
	Now     func() time.Time       // report clock, defaults to time.Now
}

// Orchestrator coordinates the pipeline stages over an immutable configuration.
type Orchestrator struct {
	cfg     config.Config
	span    config.TimeSpan
	sources Sources
	stores  *Stores
	logger  *slog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// New validates the configuration and creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	span, err := opts.Config.Span()
	if err != nil {
		return nil, err
	}
	if opts.Sources.DEX == nil || opts.Sources.Metadata == nil {
		return nil, fmt.Errorf("%w: dex and metadata sources are required", config.ErrInvalidConfig)
	}
	if opts.Stores == nil {
		opts.Stores = NewMemoryStores()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Orchestrator{
		cfg:     opts.Config,
		span:    span,
		sources: opts.Sources,
		stores:  opts.Stores,
		logger:  opts.Logger.With(slog.String("component", "orchestrator")),
		metrics: opts.Metrics,
		now:     opts.Now,
	}, nil
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Transactions int
	MintEvents   int
	Chains       int
	Intervals    int
	HorizonRows  map[string]int
	Columns      []string
	Features     map[string][]domain.FeatureRow
	Losses       []domain.LossReport
	Files        []string
	Report       *reporting.Report
}

// HorizonResult contains the horizon tables of every variant.
type HorizonResult struct {
	Variants []string
	Tables   map[string][]domain.HorizonRow
	Losses   []domain.LossReport
}

// dataset is the normalized input shared by all later stages.
type dataset struct {
	transactions []domain.Transaction // reduced table of the configured pools
	mints        []domain.MintEvent
	trades       []domain.CEXTrade
	losses       []domain.LossReport
}

// Run executes the full build.
// Phases:
//  1. Ingest, fuse, filter and reduce the input tables
//  2. Build mint chains
//  3. Partition intervals and compute direct-pool records
//  4. Align CEX bars and compute spillover records
//  5. Generate horizon tables and run the self-checks
//  6. Assemble feature rows per variant
//  7. Persist every stage output and write the feature files and report
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	ds, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}
	result := &RunResult{
		Transactions: len(ds.transactions),
		MintEvents:   len(ds.mints),
		HorizonRows:  make(map[string]int),
	}

	var chains []domain.MintChains
	err = o.stage(ctx, StageChains, func() (int, error) {
		b := chain.NewBuilder(o.cfg.ChainDepth, o.cfg.Pools[0], o.cfg.Pools[1])
		var err error
		chains, err = b.Build(ds.mints)
		if err != nil {
			return 0, err
		}
		return len(chains), chain.ValidateCausality(chains)
	})
	if err != nil {
		return nil, err
	}
	result.Chains = len(chains)

	var (
		direct []domain.DirectPoolRecord
		set    *interval.IntervalSet
	)
	err = o.stage(ctx, StageIntervals, func() (int, error) {
		arena, err := interval.NewArena([2]string{o.cfg.Pools[0], o.cfg.Pools[1]}, ds.transactions)
		if err != nil {
			return 0, err
		}
		engine := &interval.Engine{Arena: arena, Depth: o.cfg.ChainDepth, Workers: o.cfg.Workers, Logger: o.logger}
		direct, set, err = engine.Run(ctx, chains)
		if err != nil {
			return 0, err
		}
		return set.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	result.Intervals = set.Len()

	var spill []domain.SpilloverRecord
	err = o.stage(ctx, StageSpillover, func() (int, error) {
		aligned, err := o.alignCEX(ds)
		if err != nil {
			return 0, err
		}
		engine := &spillover.Engine{Aligned: aligned, Depth: o.cfg.ChainDepth, Workers: o.cfg.Workers}
		spill, err = engine.Run(ctx, chains)
		return len(spill), err
	})
	if err != nil {
		return nil, err
	}

	gen := horizon.NewGenerator(o.cfg.HorizonStep, o.cfg.Pools)
	tables, err := o.horizons(ctx, gen, ds)
	if err != nil {
		return nil, err
	}

	assembler := features.NewAssembler(o.cfg.Pools, o.cfg.ChainDepth, o.logger)
	result.Columns = assembler.Columns()
	result.Features = make(map[string][]domain.FeatureRow)
	err = o.stage(ctx, StageFeatures, func() (int, error) {
		total := 0
		for _, variant := range gen.Variants() {
			rows, losses, err := assembler.Assemble(variant, tables[variant], direct, spill)
			for _, l := range losses {
				o.recordLoss(ds, l)
			}
			if err != nil {
				return total, err
			}
			result.Features[variant] = rows
			result.HorizonRows[variant] = len(tables[variant])
			o.census(variant, rows)
			total += len(rows)
		}
		return total, nil
	})
	if err != nil {
		return nil, err
	}
	result.Losses = ds.losses

	err = o.stage(ctx, StagePersist, func() (int, error) {
		return o.persist(ctx, ds, chains, set, tables, result.Features)
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, StageReport, func() (int, error) {
		return o.writeOutputs(ctx, gen.Variants(), result)
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("pipeline completed",
		slog.Int("transactions", result.Transactions),
		slog.Int("mint_events", result.MintEvents),
		slog.Int("intervals", result.Intervals),
		slog.Int("files", len(result.Files)),
	)
	return result, nil
}

// RunHorizons builds and persists only the horizon tables.
func (o *Orchestrator) RunHorizons(ctx context.Context) (*HorizonResult, error) {
	ds, err := o.prepare(ctx)
	if err != nil {
		return nil, err
	}

	gen := horizon.NewGenerator(o.cfg.HorizonStep, o.cfg.Pools)
	tables, err := o.horizons(ctx, gen, ds)
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, StagePersist, func() (int, error) {
		n := 0
		for _, variant := range gen.Variants() {
			rows := tables[variant]
			if err := o.skipPersisted("horizons", o.stores.Horizons.InsertBulk(ctx, ptrs(rows))); err != nil {
				return n, err
			}
			n += len(rows)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	return &HorizonResult{Variants: gen.Variants(), Tables: tables, Losses: ds.losses}, nil
}

// prepare runs ingestion and normalization.
func (o *Orchestrator) prepare(ctx context.Context) (*dataset, error) {
	ds := &dataset{}

	var (
		raw  []domain.RawDEXTransaction
		meta []domain.ChainMetadata
	)
	err := o.stage(ctx, StageIngest, func() (int, error) {
		var err error
		if raw, err = o.sources.DEX.Fetch(ctx); err != nil {
			return 0, fmt.Errorf("dex: %w", err)
		}
		if meta, err = o.sources.Metadata.Fetch(ctx); err != nil {
			return 0, fmt.Errorf("metadata: %w", err)
		}
		if o.sources.CEX != nil {
			if ds.trades, err = o.sources.CEX.Fetch(ctx); err != nil {
				return 0, fmt.Errorf("cex: %w", err)
			}
		}
		return len(raw) + len(meta) + len(ds.trades), nil
	})
	if err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	err = o.stage(ctx, StageFusion, func() (int, error) {
		fused, err := normalization.Fuse(raw, meta)
		if err != nil {
			return 0, err
		}
		o.recordLoss(ds, fused.Loss)
		o.recordLoss(ds, fused.MintLoss)
		txs = fused.Transactions
		return len(txs), nil
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, StageSpan, func() (int, error) {
		var loss domain.LossReport
		txs, loss = normalization.FilterSpan(txs, o.span.Start, o.span.End)
		loss.Stage = StageSpan
		o.recordLoss(ds, loss)

		ds.trades = o.filterTrades(ds.trades)

		before := len(txs)
		txs = slices.DeleteFunc(txs, func(tx domain.Transaction) bool {
			return !slices.Contains(o.cfg.Pools, tx.PoolID)
		})
		o.recordLoss(ds, domain.LossReport{Stage: StagePools, Before: before, After: len(txs)})
		return len(txs), nil
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, StageReduce, func() (int, error) {
		mints, err := normalization.ReduceMints(txs)
		if err != nil {
			return 0, err
		}
		ds.mints = mints
		ds.transactions = normalization.ReduceTransactions(txs, mints)
		return len(ds.transactions), nil
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// filterTrades keeps exchange trades inside the span.
func (o *Orchestrator) filterTrades(trades []domain.CEXTrade) []domain.CEXTrade {
	start, end := o.span.Start*1000, o.span.End*1000
	out := make([]domain.CEXTrade, 0, len(trades))
	for _, t := range trades {
		if t.TimeMs >= start && t.TimeMs < end {
			out = append(out, t)
		}
	}
	return out
}

// alignCEX resamples exchange trades and aligns the bars to blocks.
func (o *Orchestrator) alignCEX(ds *dataset) (*spillover.Aligned, error) {
	bars := normalization.ResampleCEX(ds.trades, o.cfg.CEXSpreadSeconds)
	o.metrics.AddRows(stageCEXBars, len(bars))

	clock, err := spillover.NewBlockClock(ds.transactions)
	if err != nil {
		return nil, err
	}
	aligned, dropped := spillover.Align(bars, clock)
	o.recordLoss(ds, domain.LossReport{Stage: stageCEXAligned, Before: len(bars), After: len(bars) - dropped})
	return aligned, nil
}

// horizons generates every variant's table and runs the consistency and
// causality self-checks.
func (o *Orchestrator) horizons(ctx context.Context, gen *horizon.Generator, ds *dataset) (map[string][]domain.HorizonRow, error) {
	var tables map[string][]domain.HorizonRow
	err := o.stage(ctx, StageHorizons, func() (int, error) {
		var err error
		tables, err = gen.Generate(ds.mints, ds.transactions)
		if err != nil {
			return 0, err
		}

		wide, err := horizon.BuildWide(ds.mints, o.cfg.HorizonStep, o.cfg.Pools)
		if err != nil {
			return 0, err
		}
		if err := horizon.ValidateConsistency(wide, tables); err != nil {
			return 0, err
		}

		n := 0
		for _, variant := range gen.Variants() {
			if err := horizon.VerifyCausality(tables[variant], ds.transactions); err != nil {
				return n, fmt.Errorf("variant %s: %w", variant, err)
			}
			n += len(tables[variant])
		}
		return n, nil
	})
	return tables, err
}

// persist writes every stage output to its store.
func (o *Orchestrator) persist(
	ctx context.Context,
	ds *dataset,
	chains []domain.MintChains,
	set *interval.IntervalSet,
	tables map[string][]domain.HorizonRow,
	rows map[string][]domain.FeatureRow,
) (int, error) {
	n := 0

	if err := o.skipPersisted("transactions", o.stores.Transactions.InsertBulk(ctx, ptrs(ds.transactions))); err != nil {
		return n, err
	}
	n += len(ds.transactions)

	if err := o.skipPersisted("mint_chains", o.stores.Chains.InsertBulk(ctx, ptrs(chains))); err != nil {
		return n, err
	}
	n += len(chains)

	records := set.All()
	if err := o.skipPersisted("intervals", o.stores.Intervals.InsertBulk(ctx, ptrs(records))); err != nil {
		return n, err
	}
	n += len(records)

	for _, variant := range sortedKeys(tables) {
		if err := o.skipPersisted("horizons", o.stores.Horizons.InsertBulk(ctx, ptrs(tables[variant]))); err != nil {
			return n, err
		}
		n += len(tables[variant])
	}

	for _, variant := range sortedKeys(rows) {
		if err := o.skipPersisted("features", o.stores.Features.InsertBulk(ctx, ptrs(rows[variant]))); err != nil {
			return n, err
		}
		n += len(rows[variant])
	}

	return n, nil
}

// writeOutputs writes the feature files, builds the report from the stores
// and writes it next to the files.
func (o *Orchestrator) writeOutputs(ctx context.Context, variants []string, result *RunResult) (int, error) {
	if o.cfg.OutputDir != "" {
		files, err := reporting.WriteFeatureFiles(o.cfg.OutputDir, result.Columns, result.Features)
		if err != nil {
			return 0, err
		}
		result.Files = files
	}

	report, err := reporting.NewGenerator(o.stores.Horizons, o.stores.Features).
		WithClock(o.now).
		Generate(ctx, variants, result.Losses)
	if err != nil {
		return 0, err
	}
	report.Span = o.span.Name
	report.Pools = o.cfg.Pools
	report.ChainDepth = o.cfg.ChainDepth
	report.HorizonStep = o.cfg.HorizonStep
	report.Files = result.Files

	quality, err := reporting.NewSufficiencyChecker(o.stores.Chains, o.stores.Intervals, o.stores.Features, reporting.DefaultThresholds()).
		Check(ctx, o.cfg.Pools, variants, result.Losses)
	if err != nil {
		return 0, err
	}
	report.DataQuality = quality
	if !quality.AllChecksPassed {
		o.logger.Warn("data sufficiency checks failed",
			slog.Int("checks", len(quality.Checks)),
			slog.Int("integrity_errors", len(quality.IntegrityErrors)),
		)
	}
	result.Report = report

	o.logger.Debug("run summary", slog.String("tables", reporting.RenderText(report)))

	if o.cfg.OutputDir == "" {
		return len(result.Files), nil
	}
	path := filepath.Join(o.cfg.OutputDir, ReportFileName)
	if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		return 0, fmt.Errorf("write report: %w", err)
	}
	result.Files = append(result.Files, path)
	return len(result.Files), nil
}

// stage runs one phase, logging its start and end and recording metrics.
func (o *Orchestrator) stage(ctx context.Context, name string, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	o.logger.Info("stage started", slog.String("stage", name))
	start := time.Now()
	n, err := fn()
	elapsed := time.Since(start)
	o.metrics.ObserveStage(name, elapsed)

	if err != nil {
		category := Classify(err)
		o.metrics.RecordFatal(category)
		o.logger.Error("stage failed",
			slog.String("stage", name),
			slog.String("category", category),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", name, err)
	}

	o.metrics.AddRows(name, n)
	o.logger.Info("stage finished",
		slog.String("stage", name),
		slog.Int("rows", n),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}

func (o *Orchestrator) recordLoss(ds *dataset, l domain.LossReport) {
	ds.losses = append(ds.losses, l)
	o.metrics.RecordLoss(l)
	o.logger.Info("data loss",
		slog.String("variant", l.Variant),
		slog.String("stage", l.Stage),
		slog.Int("before", l.Before),
		slog.Int("after", l.After),
		slog.Float64("lost_pct", l.Percent()),
	)
}

// census logs and records the missing values of one variant.
func (o *Orchestrator) census(variant string, rows []domain.FeatureRow) {
	counts := features.MissingCounts(rows)
	o.metrics.SetMissing(variant, counts)
	for _, column := range sortedKeys(counts) {
		o.logger.Debug("missing values",
			slog.String("variant", variant),
			slog.String("column", column),
			slog.Int("missing", counts[column]),
			slog.Int("rows", len(rows)),
		)
	}
}

// skipPersisted tolerates rows already stored by a previous run over the same input.
func (o *Orchestrator) skipPersisted(table string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrDuplicateKey) {
		o.logger.Warn("rows already persisted, skipping", slog.String("table", table))
		return nil
	}
	return fmt.Errorf("persist %s: %w", table, err)
}

func ptrs[T any](in []T) []*T {
	out := make([]*T, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
