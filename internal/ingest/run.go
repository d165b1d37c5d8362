package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chengdutrip/spotsync/internal/source"
	"github.com/chengdutrip/spotsync/internal/spot"
	"github.com/chengdutrip/spotsync/internal/store"
)

// PageFetcher fetches one page of the source attraction list.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*source.Page, error)
}

// Result summarizes one ingestion run.
type Result struct {
	Created     int
	Updated     int
	Skipped     int
	FailedPages int
}

// Runner drives the page loop: fetch, extract, upsert. Pages run strictly
// sequentially; a failed page or a failed upsert is logged and skipped,
// never aborts the run.
type Runner struct {
	fetcher         PageFetcher
	extractor       *Extractor
	store           store.Store
	stopOnEmptyPage bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStopOnEmptyPage stops the page loop early when a page yields zero
// attractions. Off by default: the loop runs to maxPages.
func WithStopOnEmptyPage() RunnerOption {
	return func(r *Runner) {
		r.stopOnEmptyPage = true
	}
}

// NewRunner creates a Runner.
func NewRunner(fetcher PageFetcher, extractor *Extractor, st store.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		fetcher:   fetcher,
		extractor: extractor,
		store:     st,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run ingests pages 1..maxPages and returns the created/updated counts.
// Identifiers repeated across pages within one run are processed once.
// The returned Result is valid even on error (run interrupted between
// pages); partial failures inside the loop surface only through logs.
func (r *Runner) Run(ctx context.Context, maxPages int) (*Result, error) {
	if maxPages < 1 {
		return nil, eris.Errorf("ingest: max pages must be >= 1, got %d", maxPages)
	}

	logger := zap.L().With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting ingestion run", zap.Int("max_pages", maxPages))

	res := &Result{}
	seen := make(map[int64]struct{})

	for page := 1; page <= maxPages; page++ {
		// Interruptible between pages only.
		if err := ctx.Err(); err != nil {
			return res, eris.Wrapf(err, "ingest: run interrupted at page %d", page)
		}

		raw, err := r.fetcher.FetchPage(ctx, page)
		if err != nil {
			logger.Warn("page fetch failed, skipping",
				zap.Int("page", page),
				zap.Error(err),
			)
			res.FailedPages++
			continue
		}

		if len(raw.Attractions) == 0 && r.stopOnEmptyPage {
			logger.Info("empty page, stopping early", zap.Int("page", page))
			break
		}

		for _, cand := range r.extractor.Extract(ctx, raw) {
			if _, ok := seen[cand.ID]; ok {
				logger.Debug("already processed in this run",
					zap.Int64("id", cand.ID),
					zap.String("name", cand.Name),
				)
				res.Skipped++
				continue
			}
			seen[cand.ID] = struct{}{}

			if err := r.upsert(ctx, cand, res); err != nil {
				logger.Warn("upsert failed, skipping spot",
					zap.Int64("id", cand.ID),
					zap.String("name", cand.Name),
					zap.Error(err),
				)
				res.Skipped++
			}
		}

		logger.Debug("page done",
			zap.Int("page", page),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
		)
	}

	logger.Info("ingestion run finished",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed_pages", res.FailedPages),
	)
	return res, nil
}

// upsert creates or updates one candidate by identifier. On update an empty
// candidate image keeps the stored one.
func (r *Runner) upsert(ctx context.Context, cand spot.Candidate, res *Result) error {
	existing, err := r.store.GetSpot(ctx, cand.ID)
	if err != nil {
		return eris.Wrap(err, "ingest: look up spot")
	}

	sp := toSpot(cand)
	if existing == nil {
		if err := r.store.CreateSpot(ctx, sp); err != nil {
			return eris.Wrap(err, "ingest: create spot")
		}
		res.Created++
		return nil
	}

	if sp.ImageURL == "" {
		sp.ImageURL = existing.ImageURL
	}
	if err := r.store.UpdateSpot(ctx, sp); err != nil {
		return eris.Wrap(err, "ingest: update spot")
	}
	res.Updated++
	return nil
}

func toSpot(c spot.Candidate) *store.Spot {
	return &store.Spot{
		ID:          c.ID,
		Name:        c.Name,
		ImageURL:    c.ImageURL,
		Address:     c.Address,
		Price:       c.Price,
		Category:    string(c.Category),
		Longitude:   c.Longitude,
		Latitude:    c.Latitude,
		Description: c.Description,
	}
}
