package model

import "strings"

// Platform identifies the social network a URL belongs to.
type Platform string

// Supported platforms.
const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// DetectPlatform matches the URL by substring.
func DetectPlatform(rawURL string) Platform {
	switch {
	case strings.Contains(rawURL, "tiktok.com"):
		return PlatformTikTok
	case strings.Contains(rawURL, "instagram.com"):
		return PlatformInstagram
	default:
		return PlatformUnknown
	}
}

// VideoDetails is the transient result of acquiring a single video's
// metadata. It is never persisted.
type VideoDetails struct {
	Platform     Platform `json:"platform"`
	AudioURL     string   `json:"audioUrl,omitempty"`
	Description  string   `json:"description,omitempty"`
	Title        string   `json:"title,omitempty"`
	Author       string   `json:"author,omitempty"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Likes        *int64   `json:"likes,omitempty"`
	Saves        *int64   `json:"saves,omitempty"`
	Shares       *int64   `json:"shares,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Failed reports whether acquisition ended with an error.
func (v *VideoDetails) Failed() bool {
	return v.Error != ""
}

// TranscriptionResult always carries usable text. Error describes why the
// text fell back to the caption, if it did.
type TranscriptionResult struct {
	Text    string `json:"transcriptionText"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BasicRestaurant is a venue mention as extracted by the language model,
// before geocoding.
type BasicRestaurant struct {
	RestaurantName     string   `json:"restaurantName"`
	DishDescription    string   `json:"dishDescription"`
	CreatorOpinion     string   `json:"creatorOpinion"`
	RestaurantLocation string   `json:"restaurantLocation"`
	Priority           Priority `json:"priority,omitempty"`
	IsPorkSpecialist   *bool    `json:"isPorkSpecialist,omitempty"`
}

// AnalysisResult is the outcome of analyzing a video's text.
type AnalysisResult struct {
	IsRestaurantReview bool              `json:"isRestaurantReview"`
	RestaurantName     string            `json:"restaurantName,omitempty"`
	DishDescription    string            `json:"dishDescription,omitempty"`
	CreatorOpinion     string            `json:"creatorOpinion,omitempty"`
	RestaurantLocation string            `json:"restaurantLocation,omitempty"`
	Priority           Priority          `json:"priority,omitempty"`
	IsPorkSpecialist   *bool             `json:"isPorkSpecialist,omitempty"`
	Restaurants        []BasicRestaurant `json:"restaurants,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// Mentions returns the venue list, falling back to the single top-level
// mention when no list was extracted.
func (r *AnalysisResult) Mentions() []BasicRestaurant {
	if len(r.Restaurants) > 0 {
		return r.Restaurants
	}
	return []BasicRestaurant{{
		RestaurantName:     r.RestaurantName,
		DishDescription:    r.DishDescription,
		CreatorOpinion:     r.CreatorOpinion,
		RestaurantLocation: r.RestaurantLocation,
		Priority:           r.Priority,
		IsPorkSpecialist:   r.IsPorkSpecialist,
	}}
}

func toLower(s string) string {
	return strings.ToLower(s)
}
