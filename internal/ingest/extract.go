// Package ingest turns raw attraction pages into persisted scenic spots:
// extraction and normalization per item, geocoding, in-page deduplication,
// and the page-loop orchestration with upsert semantics.
package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chengdutrip/spotsync/internal/source"
	"github.com/chengdutrip/spotsync/internal/spot"
	"github.com/chengdutrip/spotsync/pkg/amap"
	"github.com/chengdutrip/spotsync/pkg/coord"
)

const defaultGeocodeConcurrency = 4

// Extractor converts one raw page into normalized candidates. Geocoding
// runs in parallel across a page's items; the dedup pass that follows is
// sequential, so output order is first-seen and deterministic.
type Extractor struct {
	geocoder    amap.Client
	classifier  *spot.Classifier
	matcher     *spot.Matcher
	concurrency int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithGeocodeConcurrency bounds the number of in-flight geocode calls per
// page.
func WithGeocodeConcurrency(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewExtractor creates an Extractor. A nil geocoder disables geocoding;
// candidates then carry only the API-supplied coordinates.
func NewExtractor(geocoder amap.Client, classifier *spot.Classifier, matcher *spot.Matcher, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		geocoder:    geocoder,
		classifier:  classifier,
		matcher:     matcher,
		concurrency: defaultGeocodeConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract normalizes every item on the page, resolves coordinates, and
// drops in-page near-duplicates (first-seen wins). Items without an
// identifier or a name are skipped. Geocoder failures degrade to the
// API-supplied coordinate, never abort the page.
func (e *Extractor) Extract(ctx context.Context, page *source.Page) []spot.Candidate {
	type entry struct {
		cand  spot.Candidate
		coord *source.Coordinate
	}

	entries := make([]*entry, 0, len(page.Attractions))
	for _, item := range page.Attractions {
		card := item.Card
		if card.POIID == 0 || card.POIName == "" {
			zap.L().Warn("skipping attraction without id or name",
				zap.Int64("poi_id", card.POIID),
				zap.String("name", card.POIName),
			)
			continue
		}

		address := card.Address
		if address == "" {
			address = card.ZoneName
		}

		entries = append(entries, &entry{
			cand: spot.Candidate{
				ID:          card.POIID,
				Name:        card.POIName,
				ImageURL:    card.CoverImageURL,
				Address:     address,
				Price:       cardPrice(card),
				Category:    e.classifier.Classify(card.POIName),
				Description: cardDescription(card),
			},
			coord: card.Coordinate,
		})
	}

	// Geocoding is the slow part; fan out per item, bounded. Workers only
	// write their own entry, so no locking is needed.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, en := range entries {
		g.Go(func() error {
			lng, lat, ok := e.resolveCoordinates(gctx, en.cand.Name, en.coord)
			if ok {
				en.cand.Longitude = &lng
				en.cand.Latitude = &lat
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// Single deterministic dedup pass in item order.
	out := make([]spot.Candidate, 0, len(entries))
	for _, en := range entries {
		dup := false
		for i := range out {
			if e.matcher.Similar(en.cand, out[i]) {
				zap.L().Debug("dropping in-page duplicate",
					zap.String("name", en.cand.Name),
					zap.String("kept", out[i].Name),
				)
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, en.cand)
		}
	}
	return out
}

// resolveCoordinates geocodes the name and falls back to the API-supplied
// coordinate. Both sources are GCJ02; the result is converted to WGS84.
func (e *Extractor) resolveCoordinates(ctx context.Context, name string, fallback *source.Coordinate) (lng, lat float64, ok bool) {
	if e.geocoder != nil {
		res, err := e.geocoder.Resolve(ctx, name)
		switch {
		case err != nil:
			zap.L().Warn("geocode failed, falling back to source coordinates",
				zap.String("name", name),
				zap.Error(err),
			)
		case res.Matched:
			lng, lat = coord.GCJ02ToWGS84(res.Longitude, res.Latitude)
			return lng, lat, true
		}
	}

	if fallback != nil {
		lng, lat = coord.GCJ02ToWGS84(fallback.Longitude, fallback.Latitude)
		return lng, lat, true
	}
	return 0, 0, false
}

// cardPrice resolves the ticket price through the field fallback chain:
// price, then marketPrice, then the free-text priceTypeDesc.
func cardPrice(card source.Card) float64 {
	var price float64
	switch {
	case card.Price != nil:
		price = float64(*card.Price)
	case card.MarketPrice != nil:
		price = float64(*card.MarketPrice)
	default:
		price = spot.ParsePrice(card.PriceTypeDesc)
	}
	if price < 0 {
		return 0
	}
	return price
}

// cardDescription joins short features, tag names and the highlights text,
// dropping empty parts.
func cardDescription(card source.Card) string {
	parts := make([]string, 0, len(card.ShortFeatures)+len(card.TagList)+1)
	for _, f := range card.ShortFeatures {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	for _, tag := range card.TagList {
		if name := strings.TrimSpace(tag.TagName); name != "" {
			parts = append(parts, name)
		}
	}
	if h := strings.TrimSpace(card.Highlights); h != "" {
		parts = append(parts, h)
	}
	return strings.Join(parts, " | ")
}
