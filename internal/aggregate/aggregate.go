// Package aggregate maintains the canonical dataset: merging new batches,
// searching, sorting, statistics and geocode backfill.
package aggregate

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/classify"
	"github.com/sichef/sichef/internal/model"
)

// Repository loads and saves the whole dataset.
type Repository interface {
	Load(ctx context.Context) ([]model.ScrapedData, error)
	Save(ctx context.Context, records []model.ScrapedData) error
}

// Geocoder resolves a venue to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, name, location string) model.GeocodeResult
}

// Aggregator applies dataset operations against a Repository.
type Aggregator struct {
	repo     Repository
	geocoder Geocoder
}

// New creates an Aggregator. geocoder may be nil when backfill is not used.
func New(repo Repository, geocoder Geocoder) *Aggregator {
	return &Aggregator{repo: repo, geocoder: geocoder}
}

// Merge combines a stored dataset with a new batch. Every incoming record is
// tagged new and every stored record untagged; on a name+location collision
// the last occurrence wins, so the batch replaces stored records. New records
// sort first; relative order is otherwise preserved. Every merged analysis
// is classified if it was not already. Inputs are not mutated.
func Merge(existing, incoming []model.ScrapedData) []model.ScrapedData {
	all := make([]model.ScrapedData, 0, len(existing)+len(incoming))
	for _, r := range existing {
		r = classified(r)
		r.IsNew = false
		all = append(all, r)
	}
	for _, r := range incoming {
		r = classified(r)
		r.IsNew = true
		all = append(all, r)
	}

	// Index of the last occurrence of each key.
	last := make(map[string]int, len(all))
	for i := range all {
		last[mergeKey(&all[i])] = i
	}

	deduped := make([]model.ScrapedData, 0, len(last))
	for i := range all {
		if last[mergeKey(&all[i])] == i {
			deduped = append(deduped, all[i])
		}
	}

	slices.SortStableFunc(deduped, func(a, b model.ScrapedData) int {
		switch {
		case a.IsNew == b.IsNew:
			return 0
		case a.IsNew:
			return -1
		default:
			return 1
		}
	})
	return deduped
}

// classified returns r with a classified copy of its analysis. Records
// exported by older clients carry no priority.
func classified(r model.ScrapedData) model.ScrapedData {
	if r.Analysis == nil {
		return r
	}
	an := *r.Analysis
	classify.Apply(&an)
	r.Analysis = &an
	return r
}

// mergeKey is the dedup key. Records without analysis have no name or
// location and are keyed by id instead.
func mergeKey(r *model.ScrapedData) string {
	if r.Analysis == nil {
		return "\x00id:" + r.ID
	}
	return r.DedupKey()
}

// MergeBatch merges batch into the stored dataset and saves the result.
func (a *Aggregator) MergeBatch(ctx context.Context, batch []model.ScrapedData) ([]model.ScrapedData, error) {
	existing, err := a.repo.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: load dataset")
	}
	merged := Merge(existing, batch)
	if err := a.repo.Save(ctx, merged); err != nil {
		return nil, eris.Wrap(err, "aggregate: save dataset")
	}
	zap.L().Info("aggregate: merged batch",
		zap.Int("existing", len(existing)),
		zap.Int("incoming", len(batch)),
		zap.Int("total", len(merged)),
	)
	return merged, nil
}

// Dataset returns the stored records.
func (a *Aggregator) Dataset(ctx context.Context) ([]model.ScrapedData, error) {
	records, err := a.repo.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: load dataset")
	}
	return records, nil
}
