// Package profile expands a TikTok or Instagram profile URL into the URLs of
// its individual videos.
package profile

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/pkg/apify"
	"github.com/sichef/sichef/pkg/fieldpath"
)

// ErrUnsupported is returned for URLs that are neither TikTok nor Instagram.
var ErrUnsupported = eris.New("profile: unsupported profile url")

// Config names the actors used per platform.
type Config struct {
	TikTokActor    string
	InstagramActor string
	Poll           []apify.PollOption
}

// Result of an expansion. NoResults is set when the provider run succeeded
// but returned nothing usable, which is not an error.
type Result struct {
	VideoURLs []string
	NoResults bool
}

// Expander runs profile scraping jobs on the managed provider.
type Expander struct {
	client apify.Client
	cfg    Config
}

// New creates an Expander. A nil client makes every call fail with
// model.ErrNotConfigured.
func New(client apify.Client, cfg Config) *Expander {
	if cfg.TikTokActor == "" {
		cfg.TikTokActor = "0FXVyOXXEmdGcV88a"
	}
	if cfg.InstagramActor == "" {
		cfg.InstagramActor = "apify/instagram-profile-scraper"
	}
	return &Expander{client: client, cfg: cfg}
}

var (
	tiktokVideoURL = fieldpath.Paths("webVideoUrl").
			Or(fieldpath.KeyContaining("url"), fieldpath.Path("downloadAddr"), fieldpath.Path("videoUrl"))
	instagramPostURL = fieldpath.Paths("url")
)

// Expand returns up to limit video URLs from the profile.
func (e *Expander) Expand(ctx context.Context, profileURL string, limit int) (Result, error) {
	if e.client == nil {
		return Result{}, eris.Wrap(model.ErrNotConfigured, "profile: managed scraping provider")
	}

	var (
		actor string
		input map[string]any
	)
	platform := model.DetectPlatform(profileURL)
	switch platform {
	case model.PlatformTikTok:
		actor = e.cfg.TikTokActor
		input = map[string]any{
			"profiles":             []string{profileURL},
			"resultsPerPage":       limit,
			"shouldDownloadVideos": false,
		}
	case model.PlatformInstagram:
		username, err := instagramUsername(profileURL)
		if err != nil {
			return Result{}, err
		}
		actor = e.cfg.InstagramActor
		input = map[string]any{
			"usernames":    []string{username},
			"resultsLimit": limit,
		}
	default:
		return Result{}, ErrUnsupported
	}

	log := zap.L().With(zap.String("profile_url", profileURL), zap.String("actor", actor))
	log.Info("profile: starting expansion", zap.Int("limit", limit))

	items, err := apify.RunActor(ctx, e.client, actor, input, e.cfg.Poll...)
	if err != nil {
		return Result{}, eris.Wrap(err, "profile: run actor")
	}

	var urls []string
	for _, raw := range items {
		doc := fieldpath.Parse(raw)
		if platform == model.PlatformTikTok {
			urls = appendNonEmpty(urls, tiktokVideoURL.String(doc))
			continue
		}
		urls = append(urls, instagramURLs(doc)...)
	}
	if limit > 0 && len(urls) > limit {
		urls = urls[:limit]
	}

	if len(urls) == 0 {
		log.Info("profile: no videos found", zap.Int("items", len(items)))
		return Result{NoResults: true, VideoURLs: []string{}}, nil
	}
	log.Info("profile: expanded", zap.Int("videos", len(urls)))
	return Result{VideoURLs: urls}, nil
}

// instagramURLs reads post URLs from a profile item. The profile scraper
// nests posts under latestPosts; other actors return one post per item.
func instagramURLs(doc gjson.Result) []string {
	var out []string
	if posts := doc.Get("latestPosts"); posts.IsArray() {
		posts.ForEach(func(_, post gjson.Result) bool {
			out = appendNonEmpty(out, instagramPostURL.String(post))
			return true
		})
		if len(out) > 0 {
			return out
		}
	}
	return appendNonEmpty(out, instagramPostURL.String(doc))
}

func instagramUsername(profileURL string) (string, error) {
	u, err := url.Parse(profileURL)
	if err != nil {
		return "", eris.Wrapf(err, "profile: parse url %q", profileURL)
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return strings.TrimPrefix(seg, "@"), nil
		}
	}
	return "", eris.Errorf("profile: no username in %q", profileURL)
}

func appendNonEmpty(list []string, s string) []string {
	if s == "" {
		return list
	}
	return append(list, s)
}
