package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chengdutrip/spotsync/internal/ingest"
	"github.com/chengdutrip/spotsync/internal/source"
	"github.com/chengdutrip/spotsync/internal/spot"
	"github.com/chengdutrip/spotsync/pkg/amap"
)

var (
	ingestPages       int
	ingestStopOnEmpty bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, normalize and upsert scenic spots",
	Long:  "Runs the full ingestion pipeline: paginated fetch, extraction and classification, geocoding, similarity deduplication, and upsert into the spot store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if ingestPages > 0 {
			cfg.Ingest.Pages = ingestPages
		}
		if ingestStopOnEmpty {
			cfg.Ingest.StopOnEmptyPage = true
		}
		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		fetcher := source.NewClient(source.Config{
			BaseURL:    cfg.Source.BaseURL,
			ClientID:   cfg.Source.ClientID,
			Cookie:     cfg.Source.Cookie,
			UserAgent:  cfg.Source.UserAgent,
			Referer:    cfg.Source.Referer,
			Origin:     cfg.Source.Origin,
			DistrictID: cfg.Source.DistrictID,
			PageSize:   cfg.Source.PageSize,
			MinDelay:   cfg.Source.MinDelay(),
			MaxDelay:   cfg.Source.MaxDelay(),
		}, nil)

		geocoder := amap.NewClient(cfg.Amap.Key,
			amap.WithBaseURL(cfg.Amap.BaseURL),
			amap.WithCity(cfg.Amap.City, cfg.Amap.CityPrefix),
			amap.WithRateLimit(cfg.Amap.RPS),
		)

		classifier := spot.NewClassifier()
		if cfg.Ingest.CategoryFile != "" {
			classifier, err = spot.LoadClassifier(cfg.Ingest.CategoryFile)
			if err != nil {
				return err
			}
		}

		matcher := &spot.Matcher{
			NameThreshold: cfg.Ingest.NameThreshold,
			MaxDistanceKm: cfg.Ingest.MaxDistanceKm,
		}

		extractor := ingest.NewExtractor(geocoder, classifier, matcher,
			ingest.WithGeocodeConcurrency(cfg.Ingest.GeocodeConcurrency))

		var opts []ingest.RunnerOption
		if cfg.Ingest.StopOnEmptyPage {
			opts = append(opts, ingest.WithStopOnEmptyPage())
		}
		runner := ingest.NewRunner(fetcher, extractor, st, opts...)

		res, err := runner.Run(ctx, cfg.Ingest.Pages)
		if err != nil {
			if res != nil {
				zap.L().Warn("run interrupted",
					zap.Int("created", res.Created),
					zap.Int("updated", res.Updated),
				)
			}
			return eris.Wrap(err, "ingest")
		}

		fmt.Printf("created %d, updated %d, skipped %d, failed pages %d\n",
			res.Created, res.Updated, res.Skipped, res.FailedPages)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestPages, "pages", 0, "number of pages to fetch (overrides config)")
	ingestCmd.Flags().BoolVar(&ingestStopOnEmpty, "stop-on-empty", false, "stop the run when a page yields no attractions")
	rootCmd.AddCommand(ingestCmd)
}
