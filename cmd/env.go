package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/aggregate"
	"github.com/sichef/sichef/internal/analyze"
	"github.com/sichef/sichef/internal/config"
	"github.com/sichef/sichef/internal/enrich"
	"github.com/sichef/sichef/internal/geocode"
	"github.com/sichef/sichef/internal/metrics"
	"github.com/sichef/sichef/internal/pipeline"
	"github.com/sichef/sichef/internal/profile"
	"github.com/sichef/sichef/internal/store"
	"github.com/sichef/sichef/internal/transcribe"
	"github.com/sichef/sichef/internal/video"
	anthropicpkg "github.com/sichef/sichef/pkg/anthropic"
	"github.com/sichef/sichef/pkg/apify"
	"github.com/sichef/sichef/pkg/google"
	"github.com/sichef/sichef/pkg/nominatim"
	"github.com/sichef/sichef/pkg/tiktok"
	"github.com/sichef/sichef/pkg/whisper"
)

// appEnv holds the initialized collaborators a command needs. Fields a
// command did not ask for stay nil.
type appEnv struct {
	Store     store.Store
	Dataset   *aggregate.Aggregator
	Geocoder  *geocode.Geocoder
	Pipeline  *pipeline.Pipeline
	Describer *enrich.Describer
	Metrics   *metrics.Metrics

	redis *redis.Client
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

type envNeeds struct {
	store    bool
	geocoder bool
	pipeline bool
}

// initEnv builds what needs asks for. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, needs envNeeds) (*appEnv, error) {
	env := &appEnv{Metrics: metrics.New()}

	if needs.geocoder || needs.pipeline {
		env.Geocoder = initGeocoder(ctx, c, env)
	}

	if needs.pipeline {
		if err := c.Validate("scrape"); err != nil {
			env.Close()
			return nil, err
		}
		env.Pipeline = initPipeline(c, env.Geocoder, env.Metrics)
		env.Describer = newDescriber(c)
	}

	if needs.store {
		if err := c.Validate("store"); err != nil {
			env.Close()
			return nil, err
		}
		st, err := store.Open(ctx, store.Config{Driver: c.Store.Driver, DatabaseURL: c.Store.DatabaseURL})
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st

		var geo aggregate.Geocoder
		if env.Geocoder != nil {
			geo = env.Geocoder
		}
		env.Dataset = aggregate.New(st, geo)
	}

	return env, nil
}

// initGeocoder returns a geocoder for the configured provider. A missing
// credential yields a geocoder whose lookups report the configuration error,
// so scraping still works without coordinates.
func initGeocoder(ctx context.Context, c *config.Config, env *appEnv) *geocode.Geocoder {
	opts := []geocode.Option{geocode.WithMetrics(env.Metrics)}
	if c.Redis.Addr != "" {
		rc, err := geocode.NewRedisClient(ctx, c.Redis.Addr, c.Redis.Password, c.Redis.DB)
		if err != nil {
			zap.L().Warn("geocode cache disabled", zap.Error(err))
		} else {
			env.redis = rc
			ttl := time.Duration(c.Geocode.CacheTTLHours) * time.Hour
			opts = append(opts, geocode.WithCache(geocode.NewRedisCache(rc, ttl)))
		}
	}

	if err := c.Validate("geocode"); err != nil {
		zap.L().Warn("geocoding disabled", zap.Error(err))
		return geocode.New(nil, opts...)
	}

	var provider geocode.Provider
	switch c.Geocode.Provider {
	case "nominatim":
		provider = geocode.NewNominatimProvider(nominatim.NewClient(
			nominatim.WithBaseURL(c.Nominatim.BaseURL),
			nominatim.WithUserAgent(c.Nominatim.UserAgent),
			nominatim.WithRateLimit(c.Nominatim.RPS),
		))
	default:
		provider = geocode.NewGoogleProvider(google.NewClient(c.Google.Key))
	}
	zap.L().Debug("geocoder ready", zap.String("provider", provider.Name()))
	return geocode.New(provider, opts...)
}

// initPipeline wires every provider client into the pipeline. The managed
// scraping and speech-to-text providers are optional.
func initPipeline(c *config.Config, geo pipeline.Geocoder, m *metrics.Metrics) *pipeline.Pipeline {
	poll := []apify.PollOption{
		apify.WithPollInterval(time.Duration(c.Apify.PollIntervalMs) * time.Millisecond),
		apify.WithPollCap(time.Duration(c.Apify.PollCapMs) * time.Millisecond),
		apify.WithPollTimeout(time.Duration(c.Apify.PollTimeoutSecs) * time.Second),
	}

	var managed apify.Client
	if c.Apify.Token != "" {
		managed = apify.NewClient(c.Apify.Token, apify.WithBaseURL(c.Apify.BaseURL))
	} else {
		zap.L().Warn("SICHEF_APIFY_TOKEN not set, profile expansion and managed scraping disabled")
	}

	var stt whisper.Client
	if c.OpenAI.Key != "" {
		stt = whisper.NewClient(c.OpenAI.Key, whisper.WithBaseURL(c.OpenAI.BaseURL))
	} else {
		zap.L().Warn("SICHEF_OPENAI_KEY not set, videos are analyzed from captions only")
	}

	direct := tiktok.NewClient(
		tiktok.WithBaseURL(c.TikTok.BaseURL),
		tiktok.WithUserAgent(c.TikTok.UserAgent),
	)

	acquirer := video.New(direct, managed, video.Config{
		TikTokActor:    c.Apify.TikTokVideoActor,
		InstagramActor: c.Apify.InstagramPost,
		DirectAttempts: c.TikTok.MaxAttempts,
		DirectDelay:    time.Duration(c.TikTok.RetryDelayMs) * time.Millisecond,
		Poll:           poll,
	})
	expander := profile.New(managed, profile.Config{
		TikTokActor:    c.Apify.TikTokProfileActor,
		InstagramActor: c.Apify.InstagramProfile,
		Poll:           poll,
	})
	gate := transcribe.New(stt, transcribe.Config{
		PrimaryModel:  c.OpenAI.PrimaryModel,
		FallbackModel: c.OpenAI.FallbackModel,
	})
	analyzer := analyze.New(anthropicpkg.NewClient(c.Anthropic.Key), analyze.Config{
		Model:          c.Anthropic.Model,
		MaxTokens:      c.Anthropic.MaxTokens,
		MaxRestaurants: c.Pipeline.MaxRestaurants,
	})

	return pipeline.New(pipeline.Deps{
		Acquirer:    acquirer,
		Expander:    expander,
		Transcriber: gate,
		Analyzer:    analyzer,
		Geocoder:    geo,
		Metrics:     m,
	}, pipeline.Config{
		DefaultLimit: c.Pipeline.DefaultLimit,
		MaxLimit:     c.Pipeline.MaxLimit,
		Timeout:      time.Duration(c.Pipeline.TimeoutSecs) * time.Second,
	})
}

func newDescriber(c *config.Config) *enrich.Describer {
	return enrich.New(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model)
}
