package reporting

import (
	"context"
	"fmt"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataQuality contains the sufficiency checks and integrity errors of a build.
type DataQuality struct {
	Checks          []SufficiencyCheck
	IntegrityErrors []string
	AllChecksPassed bool
}

// Thresholds are the sufficiency criteria.
type Thresholds struct {
	MinMintsPerPool int     // mint events per configured pool
	MinFullDepthPct float64 // share of events whose same-pool chain is fully populated
	MinFeatureRows  int     // feature rows per variant
	MaxJoinLossPct  float64 // rows dropped at any single join
}

// DefaultThresholds returns the criteria used by the pipeline.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMintsPerPool: 10,
		MinFullDepthPct: 50,
		MinFeatureRows:  1,
		MaxJoinLossPct:  50,
	}
}

// SufficiencyChecker validates stored stage outputs before the dataset is used.
type SufficiencyChecker struct {
	chainStore    storage.MintChainStore
	intervalStore storage.IntervalStore
	featureStore  storage.FeatureStore
	thresholds    Thresholds
}

// NewSufficiencyChecker creates a new sufficiency checker.
func NewSufficiencyChecker(
	chainStore storage.MintChainStore,
	intervalStore storage.IntervalStore,
	featureStore storage.FeatureStore,
	thresholds Thresholds,
) *SufficiencyChecker {
	return &SufficiencyChecker{
		chainStore:    chainStore,
		intervalStore: intervalStore,
		featureStore:  featureStore,
		thresholds:    thresholds,
	}
}

// Check runs every criterion over the given pools, variants and join losses.
func (c *SufficiencyChecker) Check(ctx context.Context, pools, variants []string, losses []domain.LossReport) (*DataQuality, error) {
	q := &DataQuality{AllChecksPassed: true}
	add := func(check SufficiencyCheck) {
		q.Checks = append(q.Checks, check)
		if !check.Pass {
			q.AllChecksPassed = false
		}
	}

	var events []*domain.MintChains
	for _, pool := range pools {
		chains, err := c.chainStore.GetByPool(ctx, pool)
		if err != nil {
			return nil, fmt.Errorf("failed to get chains of pool %s: %w", pool, err)
		}
		add(SufficiencyCheck{
			Name:      fmt.Sprintf("Mint events on pool %s", pool),
			Threshold: fmt.Sprintf(">= %d", c.thresholds.MinMintsPerPool),
			Actual:    fmt.Sprintf("%d", len(chains)),
			Pass:      len(chains) >= c.thresholds.MinMintsPerPool,
		})
		events = append(events, chains...)
	}

	add(c.checkFullDepth(events))

	check, errs, err := c.checkIntervalCoverage(ctx, events)
	if err != nil {
		return nil, err
	}
	add(check)
	q.IntegrityErrors = append(q.IntegrityErrors, errs...)

	for _, variant := range variants {
		rows, err := c.featureStore.GetByVariant(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("failed to get features of %s: %w", variant, err)
		}
		add(SufficiencyCheck{
			Name:      fmt.Sprintf("Feature rows of variant %s", variant),
			Threshold: fmt.Sprintf(">= %d", c.thresholds.MinFeatureRows),
			Actual:    fmt.Sprintf("%d", len(rows)),
			Pass:      len(rows) >= c.thresholds.MinFeatureRows,
		})
	}

	add(c.checkJoinLoss(losses))

	return q, nil
}

// checkFullDepth: share of events whose same-pool chain has no null position.
func (c *SufficiencyChecker) checkFullDepth(events []*domain.MintChains) SufficiencyCheck {
	full := 0
	for _, e := range events {
		if e.Same.Valid == e.Same.Depth() {
			full++
		}
	}
	pct := 0.0
	if len(events) > 0 {
		pct = float64(full) / float64(len(events)) * 100
	}
	return SufficiencyCheck{
		Name:      "Full-depth same-pool chains",
		Threshold: fmt.Sprintf(">= %.0f%%", c.thresholds.MinFullDepthPct),
		Actual:    fmt.Sprintf("%.2f%%", pct),
		Pass:      len(events) > 0 && pct >= c.thresholds.MinFullDepthPct,
	}
}

// checkIntervalCoverage: every stored event with a prior mint has stored intervals.
func (c *SufficiencyChecker) checkIntervalCoverage(ctx context.Context, events []*domain.MintChains) (SufficiencyCheck, []string, error) {
	var errs []string
	for _, e := range events {
		if e.Same.Valid < 2 && e.Other.Valid < 2 {
			continue
		}
		records, err := c.intervalStore.GetByHashID(ctx, e.HashID)
		if err != nil {
			return SufficiencyCheck{}, nil, fmt.Errorf("failed to get intervals of %d: %w", e.HashID, err)
		}
		if len(records) == 0 {
			errs = append(errs, fmt.Sprintf("hashid %d (pool %s, block %d) has no intervals", e.HashID, e.PoolID, e.BlockNumber))
		}
	}
	return SufficiencyCheck{
		Name:      "Events without intervals",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs, nil
}

// checkJoinLoss: no join of the feature assembly drops too many rows.
func (c *SufficiencyChecker) checkJoinLoss(losses []domain.LossReport) SufficiencyCheck {
	worst := 0.0
	name := "-"
	for _, l := range losses {
		if l.Variant == "" {
			continue
		}
		if p := l.Percent(); p > worst {
			worst = p
			name = l.Variant + "/" + l.Stage
		}
	}
	return SufficiencyCheck{
		Name:      "Worst join loss",
		Threshold: fmt.Sprintf("<= %.0f%%", c.thresholds.MaxJoinLossPct),
		Actual:    fmt.Sprintf("%.2f%% (%s)", worst, name),
		Pass:      worst <= c.thresholds.MaxJoinLossPct,
	}
}
