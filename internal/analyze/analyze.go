// Package analyze asks a language model whether a video's text describes
// food or drink venues and extracts them.
package analyze

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/classify"
	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/resilience"
	"github.com/sichef/sichef/pkg/anthropic"
)

// ErrEmptyText is reported when there is nothing to analyze.
const ErrEmptyText = "Missing text to analyze"

const defaultMaxRestaurants = 15

// Config tunes the model call.
type Config struct {
	Model          string
	MaxTokens      int64
	MaxRestaurants int
	Temperature    float64

	// Retry applies to transient failures of the model call. Zero means
	// resilience.DefaultRetryConfig.
	Retry resilience.RetryConfig
}

// Analyzer extracts venue mentions from text.
type Analyzer struct {
	client anthropic.Client
	cfg    Config
}

// New creates an Analyzer.
func New(client anthropic.Client, cfg Config) *Analyzer {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.MaxRestaurants <= 0 {
		cfg.MaxRestaurants = defaultMaxRestaurants
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	cfg.Retry.OnRetry = resilience.RetryLogger("anthropic", "analyze")
	return &Analyzer{client: client, cfg: cfg}
}

type rawMention struct {
	RestaurantName     string `json:"restaurantName"`
	DishDescription    string `json:"dishDescription"`
	CreatorOpinion     string `json:"creatorOpinion"`
	RestaurantLocation string `json:"restaurantLocation"`
}

type rawAnalysis struct {
	IsRestaurantReview bool `json:"isRestaurantReview"`
	rawMention
	Restaurants []rawMention `json:"restaurants"`
}

// Analyze never returns a Go error. Provider failures are reported in the
// Error field; unparseable output is a plain "not a review".
func (a *Analyzer) Analyze(ctx context.Context, text string) model.AnalysisResult {
	if strings.TrimSpace(text) == "" {
		return model.AnalysisResult{IsRestaurantReview: false, Error: ErrEmptyText}
	}
	if a.client == nil {
		return model.AnalysisResult{Error: "language model provider not configured"}
	}

	temp := a.cfg.Temperature
	req := anthropic.MessageRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: buildPrompt(text, a.cfg.MaxRestaurants)}},
		Temperature: &temp,
	}
	resp, err := resilience.DoVal(ctx, a.cfg.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, req)
	})
	if err != nil {
		zap.L().Warn("analyze: model call failed", zap.Error(err))
		return model.AnalysisResult{Error: err.Error()}
	}
	resp.Usage.LogCost(a.cfg.Model, "analyze")

	content := resp.Text()
	if strings.TrimSpace(content) == "" {
		return model.AnalysisResult{Error: "empty model response"}
	}
	return Parse(content, a.cfg.MaxRestaurants)
}

// Parse converts raw model output into an AnalysisResult. Code fences are
// tolerated. Mentions are classified and capped at maxRestaurants.
func Parse(content string, maxRestaurants int) model.AnalysisResult {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		zap.L().Debug("analyze: model output is not json", zap.Error(err))
		return model.AnalysisResult{IsRestaurantReview: false}
	}
	if !raw.IsRestaurantReview {
		return model.AnalysisResult{IsRestaurantReview: false}
	}

	top := toMention(raw.rawMention)
	if top.RestaurantName == "" && len(raw.Restaurants) > 0 {
		top = toMention(raw.Restaurants[0])
	}
	classify.ApplyMention(&top)

	res := model.AnalysisResult{
		IsRestaurantReview: true,
		RestaurantName:     top.RestaurantName,
		DishDescription:    top.DishDescription,
		CreatorOpinion:     top.CreatorOpinion,
		RestaurantLocation: top.RestaurantLocation,
		Priority:           top.Priority,
		IsPorkSpecialist:   top.IsPorkSpecialist,
	}

	for _, r := range raw.Restaurants {
		if maxRestaurants > 0 && len(res.Restaurants) >= maxRestaurants {
			break
		}
		m := toMention(r)
		classify.ApplyMention(&m)
		res.Restaurants = append(res.Restaurants, m)
	}
	return res
}

// StripFences removes a surrounding Markdown code fence and any prose
// around the outermost JSON object.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

func toMention(r rawMention) model.BasicRestaurant {
	return model.BasicRestaurant{
		RestaurantName:     strings.TrimSpace(r.RestaurantName),
		DishDescription:    strings.TrimSpace(r.DishDescription),
		CreatorOpinion:     strings.TrimSpace(r.CreatorOpinion),
		RestaurantLocation: strings.TrimSpace(r.RestaurantLocation),
	}
}
