package aggregate

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sichef/sichef/internal/model"
)

const backfillConcurrency = 4

// BackfillResult reports how many records were looked up and how many gained
// coordinates.
type BackfillResult struct {
	Attempted int `json:"attempted"`
	Updated   int `json:"updated"`
}

// Backfill geocodes stored records that have analysis but no latitude and
// saves the dataset. Lookups that fail leave their record untouched.
func (a *Aggregator) Backfill(ctx context.Context) (BackfillResult, error) {
	if a.geocoder == nil {
		return BackfillResult{}, eris.Wrap(model.ErrNotConfigured, "aggregate: geocoder")
	}
	records, err := a.repo.Load(ctx)
	if err != nil {
		return BackfillResult{}, eris.Wrap(err, "aggregate: load dataset")
	}

	var pending []*model.RestaurantAnalysis
	for i := range records {
		if an := records[i].Analysis; an != nil && an.Latitude == nil {
			pending = append(pending, an)
		}
	}
	res := BackfillResult{Attempted: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	var updated atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)
	for _, an := range pending {
		g.Go(func() error {
			geo := a.geocoder.Lookup(gCtx, an.RestaurantName, an.RestaurantLocation)
			if !geo.Found() {
				zap.L().Debug("aggregate: backfill lookup failed",
					zap.String("restaurant", an.RestaurantName),
					zap.String("error", geo.Error),
				)
				return nil
			}
			an.ApplyGeocode(geo)
			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	res.Updated = int(updated.Load())

	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "aggregate: backfill cancelled")
	}
	if err := a.repo.Save(ctx, records); err != nil {
		return res, eris.Wrap(err, "aggregate: save dataset")
	}
	zap.L().Info("aggregate: backfill complete", zap.Int("attempted", res.Attempted), zap.Int("updated", res.Updated))
	return res, nil
}
