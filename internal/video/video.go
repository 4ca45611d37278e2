// Package video acquires normalized metadata for a single TikTok or
// Instagram video.
package video

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/resilience"
	"github.com/sichef/sichef/pkg/apify"
	"github.com/sichef/sichef/pkg/fieldpath"
	"github.com/sichef/sichef/pkg/tiktok"
)

const (
	strategyDirect  = "direct"
	strategyManaged = "managed"

	defaultDirectAttempts = 3
	defaultDirectDelay    = 1500 * time.Millisecond

	errUnsupportedURL = "unsupported url"
)

var (
	errNoDescription = eris.New("video: no description")
	errNoItems       = eris.New("video: managed provider returned no items")
)

// Config tunes acquisition.
type Config struct {
	TikTokActor    string
	InstagramActor string
	DirectAttempts int
	DirectDelay    time.Duration
	Poll           []apify.PollOption
}

// Acquirer fetches video metadata. Either client may be nil, in which case
// the strategies that need it are skipped.
type Acquirer struct {
	direct  tiktok.Client
	managed apify.Client
	cfg     Config
}

// New creates an Acquirer.
func New(direct tiktok.Client, managed apify.Client, cfg Config) *Acquirer {
	if cfg.DirectAttempts <= 0 {
		cfg.DirectAttempts = defaultDirectAttempts
	}
	if cfg.DirectDelay <= 0 {
		cfg.DirectDelay = defaultDirectDelay
	}
	if cfg.TikTokActor == "" {
		cfg.TikTokActor = "clockworks/tiktok-video-scraper"
	}
	if cfg.InstagramActor == "" {
		cfg.InstagramActor = "apify/instagram-scraper"
	}
	return &Acquirer{direct: direct, managed: managed, cfg: cfg}
}

// Acquire returns the video's metadata. It never returns a Go error; failures
// are reported in the Error field. TikTok tries the direct scrape first and
// only then the paid managed provider.
func (a *Acquirer) Acquire(ctx context.Context, videoURL string) model.VideoDetails {
	platform := model.DetectPlatform(videoURL)
	log := zap.L().With(zap.String("video_url", videoURL), zap.String("platform", string(platform)))

	var strategies []resilience.Strategy[model.VideoDetails]
	switch platform {
	case model.PlatformTikTok:
		if a.direct != nil {
			strategies = append(strategies, resilience.Strategy[model.VideoDetails]{
				Name: strategyDirect,
				Run:  func(ctx context.Context) (model.VideoDetails, error) { return a.tiktokDirect(ctx, videoURL) },
			})
		}
		strategies = append(strategies, resilience.Strategy[model.VideoDetails]{
			Name: strategyManaged,
			Run:  func(ctx context.Context) (model.VideoDetails, error) { return a.tiktokManaged(ctx, videoURL) },
		})
	case model.PlatformInstagram:
		strategies = append(strategies, resilience.Strategy[model.VideoDetails]{
			Name: strategyManaged,
			Run:  func(ctx context.Context) (model.VideoDetails, error) { return a.instagramManaged(ctx, videoURL) },
		})
	default:
		log.Info("video: unsupported url")
		return model.VideoDetails{Platform: model.PlatformUnknown, Error: errUnsupportedURL}
	}

	details, used, err := resilience.First(ctx, strategies...)
	if err != nil {
		log.Warn("video: acquisition failed", zap.Error(err))
		return model.VideoDetails{Platform: platform, Error: err.Error()}
	}
	log.Debug("video: acquired", zap.String("strategy", used), zap.Bool("has_audio", details.AudioURL != ""))
	return details
}

func (a *Acquirer) tiktokDirect(ctx context.Context, videoURL string) (model.VideoDetails, error) {
	cfg := resilience.FixedDelay(a.cfg.DirectAttempts, a.cfg.DirectDelay)
	cfg.OnRetry = resilience.RetryLogger("tiktok", "fetch_item")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (model.VideoDetails, error) {
		raw, err := a.direct.FetchItem(ctx, videoURL)
		if err != nil {
			return model.VideoDetails{}, err
		}
		d := tiktokDirect.apply(fieldpath.Parse(raw), model.PlatformTikTok)
		if d.Description == "" {
			return d, errNoDescription
		}
		if d.Title == "" {
			d.Title = firstLine(d.Description)
		}
		return d, nil
	})
}

func (a *Acquirer) tiktokManaged(ctx context.Context, videoURL string) (model.VideoDetails, error) {
	input := map[string]any{
		"postURLs":                      []string{videoURL},
		"shouldDownloadCovers":          false,
		"shouldDownloadSlideshowImages": false,
		"shouldDownloadSubtitles":       false,
		"shouldDownloadVideos":          false,
	}
	doc, err := a.runManaged(ctx, a.cfg.TikTokActor, input)
	if err != nil {
		return model.VideoDetails{}, err
	}

	d := tiktokManaged.apply(doc, model.PlatformTikTok)
	d.Title = titleOf(d,
		prefixed("Video di ", doc.Get("authorMeta.name").String()),
		"Titolo TikTok non disponibile",
	)
	return d, nil
}

func (a *Acquirer) instagramManaged(ctx context.Context, videoURL string) (model.VideoDetails, error) {
	input := map[string]any{
		"directUrls":   []string{videoURL},
		"resultsLimit": 1,
	}
	doc, err := a.runManaged(ctx, a.cfg.InstagramActor, input)
	if err != nil {
		return model.VideoDetails{}, err
	}

	d := instagramManaged.apply(doc, model.PlatformInstagram)
	d.Title = titleOf(d,
		prefixed("Reel di ", doc.Get("ownerUsername").String()),
		prefixed("Post di ", doc.Get("username").String()),
		"Titolo Instagram non disponibile",
	)
	return d, nil
}

// runManaged runs an actor and returns the first dataset item.
func (a *Acquirer) runManaged(ctx context.Context, actor string, input any) (gjson.Result, error) {
	if a.managed == nil {
		return gjson.Result{}, eris.Wrap(model.ErrNotConfigured, "video: managed scraping provider")
	}
	items, err := apify.RunActor(ctx, a.managed, actor, input, a.cfg.Poll...)
	if err != nil {
		return gjson.Result{}, err
	}
	if len(items) == 0 {
		return gjson.Result{}, errNoItems
	}
	return fieldpath.Parse(items[0]), nil
}

func (e extraction) apply(doc gjson.Result, platform model.Platform) model.VideoDetails {
	d := model.VideoDetails{
		Platform:     platform,
		Description:  e.description.String(doc),
		AudioURL:     e.audio.String(doc),
		Author:       e.author.String(doc),
		ThumbnailURL: e.thumbnail.String(doc),
		Likes:        e.likes.Int(doc),
		Saves:        e.saves.Int(doc),
		Shares:       e.shares.Int(doc),
	}
	if e.title != nil {
		d.Title = e.title.String(doc)
	}
	return d
}

// titleOf returns the provider title, the first description line, or the
// first non-empty fallback.
func titleOf(d model.VideoDetails, fallbacks ...string) string {
	if d.Title != "" {
		return d.Title
	}
	if line := firstLine(d.Description); line != "" {
		return line
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
