// Package pipeline turns a profile or video URL into analyzed, geocoded
// restaurant records.
package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sichef/sichef/internal/classify"
	"github.com/sichef/sichef/internal/metrics"
	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/profile"
)

// ErrTimeout is returned when the whole batch exceeds its wall-clock ceiling.
var ErrTimeout = errors.New("pipeline: timed out")

var singleVideoPattern = regexp.MustCompile(`(?i)tiktok\.com/.+/video/|instagram\.com/reel/`)

// IsSingleVideo reports whether rawURL points at one video rather than a
// profile.
func IsSingleVideo(rawURL string) bool {
	return singleVideoPattern.MatchString(rawURL)
}

// Acquirer fetches video metadata.
type Acquirer interface {
	Acquire(ctx context.Context, videoURL string) model.VideoDetails
}

// Expander lists a profile's recent videos.
type Expander interface {
	Expand(ctx context.Context, profileURL string, limit int) (profile.Result, error)
}

// Transcriber produces the text of a video.
type Transcriber interface {
	Transcribe(ctx context.Context, d model.VideoDetails) model.TranscriptionResult
}

// Analyzer extracts venue mentions from text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) model.AnalysisResult
}

// Geocoder resolves a venue to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, name, location string) model.GeocodeResult
}

// Deps groups the pipeline collaborators.
type Deps struct {
	Acquirer    Acquirer
	Expander    Expander
	Transcriber Transcriber
	Analyzer    Analyzer
	Geocoder    Geocoder
	Metrics     *metrics.Metrics
}

// Config bounds a run.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

// Request is one scrape invocation.
type Request struct {
	URL      string `json:"url"`
	Limit    int    `json:"limit"`
	Keywords string `json:"keywords"`
}

// Pipeline orchestrates acquisition, transcription, analysis and geocoding
// for every video of a request.
type Pipeline struct {
	deps  Deps
	cfg   Config
	newID func() string
}

// New creates a Pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 200
	}
	return &Pipeline{deps: deps, cfg: cfg, newID: uuid.NewString}
}

// Limit applies the default and the ceiling to a requested limit.
func (p *Pipeline) Limit(requested int) int {
	switch {
	case requested <= 0:
		return min(p.cfg.DefaultLimit, p.cfg.MaxLimit)
	case requested > p.cfg.MaxLimit:
		return p.cfg.MaxLimit
	default:
		return requested
	}
}

// Run processes every video the request resolves to. Individual videos that
// fail contribute nothing; only a profile expansion failure or the timeout
// fail the run. The result is never nil.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]model.ScrapedData, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, eris.New("pipeline: url is required")
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	limit := p.Limit(req.Limit)
	log := zap.L().With(zap.String("url", req.URL), zap.Int("limit", limit), zap.String("keywords", req.Keywords))

	videoURLs, err := p.videoURLs(ctx, req.URL, limit)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, eris.Wrap(ErrTimeout, "expand profile")
		}
		return nil, err
	}
	log.Info("pipeline: processing videos", zap.Int("videos", len(videoURLs)))

	perVideo := make([][]model.ScrapedData, len(videoURLs))
	g, gCtx := errgroup.WithContext(ctx)
	for i, videoURL := range videoURLs {
		g.Go(func() error {
			perVideo[i] = p.processVideo(gCtx, videoURL, req.Keywords)
			return nil
		})
	}
	_ = g.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("pipeline: batch exceeded its deadline", zap.Duration("timeout", p.cfg.Timeout))
		return nil, eris.Wrapf(ErrTimeout, "after %s", p.cfg.Timeout)
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: cancelled")
	}

	records := make([]model.ScrapedData, 0)
	for _, recs := range perVideo {
		records = append(records, recs...)
	}
	p.deps.Metrics.Records(len(records))
	log.Info("pipeline: done", zap.Int("records", len(records)))
	return records, nil
}

func (p *Pipeline) videoURLs(ctx context.Context, rawURL string, limit int) ([]string, error) {
	if IsSingleVideo(rawURL) {
		return []string{rawURL}, nil
	}
	if p.deps.Expander == nil {
		return nil, eris.Wrap(model.ErrNotConfigured, "pipeline: profile expansion")
	}
	res, err := p.deps.Expander.Expand(ctx, rawURL, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: expand %s", rawURL)
	}
	return res.VideoURLs, nil
}

func (p *Pipeline) processVideo(ctx context.Context, videoURL, keywords string) []model.ScrapedData {
	start := time.Now()
	defer p.deps.Metrics.ObserveVideo(start)
	log := zap.L().With(zap.String("video_url", videoURL))

	details := p.deps.Acquirer.Acquire(ctx, videoURL)
	if details.Failed() {
		log.Info("pipeline: skipping video", zap.String("platform", string(details.Platform)), zap.String("error", details.Error))
		p.deps.Metrics.Video(metrics.VideoAcquireFailed)
		return nil
	}

	if !MatchesKeywords(details.Description, keywords) {
		log.Debug("pipeline: caption does not match keywords", zap.String("keywords", keywords))
		p.deps.Metrics.Video(metrics.VideoFiltered)
		return nil
	}

	tr := p.deps.Transcriber.Transcribe(ctx, details)
	switch {
	case tr.Skipped:
		p.deps.Metrics.Transcription(metrics.TranscriptionSkipped)
	case tr.Error != "":
		log.Warn("pipeline: transcription failed, using caption", zap.String("error", tr.Error))
		p.deps.Metrics.Transcription(metrics.TranscriptionFailed)
	default:
		p.deps.Metrics.Transcription(metrics.TranscriptionTranscribed)
	}

	caption := details.Description
	fullText := CombineText(caption, tr.Text)
	analysis := p.deps.Analyzer.Analyze(ctx, fullText)
	if !analysis.IsRestaurantReview && strings.TrimSpace(caption) != "" && fullText != strings.TrimSpace(caption) {
		log.Debug("pipeline: retrying analysis on caption only")
		if retry := p.deps.Analyzer.Analyze(ctx, caption); retry.IsRestaurantReview {
			analysis = retry
		}
	}
	if analysis.Error != "" || !analysis.IsRestaurantReview {
		if analysis.Error != "" {
			log.Warn("pipeline: analysis failed", zap.String("error", analysis.Error))
		}
		p.deps.Metrics.Video(metrics.VideoNotReview)
		return nil
	}

	var records []model.ScrapedData
	for _, mention := range analysis.Mentions() {
		if strings.TrimSpace(mention.RestaurantName) == "" {
			continue
		}
		geo := p.deps.Geocoder.Lookup(ctx, mention.RestaurantName, mention.RestaurantLocation)
		if geo.Error != "" {
			log.Info("pipeline: restaurant not geocoded",
				zap.String("restaurant", mention.RestaurantName),
				zap.String("error", geo.Error),
			)
		}
		records = append(records, p.assemble(videoURL, details, mention, geo))
	}
	p.deps.Metrics.Video(metrics.VideoOK)
	return records
}

func (p *Pipeline) assemble(videoURL string, d model.VideoDetails, m model.BasicRestaurant, geo model.GeocodeResult) model.ScrapedData {
	a := &model.RestaurantAnalysis{
		RestaurantName:     m.RestaurantName,
		DishDescription:    orNA(m.DishDescription),
		CreatorOpinion:     orNA(m.CreatorOpinion),
		RestaurantLocation: m.RestaurantLocation,
		Priority:           m.Priority,
		IsPorkSpecialist:   m.IsPorkSpecialist,
	}
	a.ApplyGeocode(geo)
	if a.RestaurantLocation == "" {
		a.RestaurantLocation = geo.FormattedAddress
	}
	classify.Apply(a)

	return model.ScrapedData{
		ID:           p.newID(),
		VideoURL:     videoURL,
		Caption:      d.Description,
		Analysis:     a,
		ThumbnailURL: d.ThumbnailURL,
		Likes:        d.Likes,
		Saves:        d.Saves,
		Shares:       d.Shares,
		CreatorName:  d.Author,
	}
}

// MatchesKeywords is a case-insensitive substring test. Blank keywords match
// everything.
func MatchesKeywords(caption, keywords string) bool {
	kw := strings.ToLower(strings.TrimSpace(keywords))
	if kw == "" {
		return true
	}
	return strings.Contains(strings.ToLower(caption), kw)
}

// CombineText joins caption and transcript, skipping parts already present.
func CombineText(caption, transcript string) string {
	caption, transcript = strings.TrimSpace(caption), strings.TrimSpace(transcript)
	switch {
	case transcript == "":
		return caption
	case caption == "" || strings.Contains(transcript, caption):
		return transcript
	default:
		return caption + "\n" + transcript
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
