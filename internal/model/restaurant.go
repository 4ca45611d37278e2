// Package model defines the records that flow through the scraping pipeline.
package model

import "errors"

// ErrNotConfigured is returned when an operation needs a provider credential
// that is missing from the configuration.
var ErrNotConfigured = errors.New("provider not configured")

// Priority is the coarse recommendation tier assigned by the classifier.
type Priority string

// Priority tiers, strongest first.
const (
	PriorityMustVisit   Priority = "must-visit"
	PriorityRecommended Priority = "recommended"
	PriorityIfInArea    Priority = "if-in-area"
)

// Rank orders priorities for sorting. Unknown or empty priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityMustVisit:
		return 3
	case PriorityRecommended:
		return 2
	case PriorityIfInArea:
		return 1
	default:
		return 0
	}
}

// RestaurantAnalysis holds structured facts about one venue mention.
type RestaurantAnalysis struct {
	RestaurantName     string   `json:"restaurantName"`
	DishDescription    string   `json:"dishDescription"`
	CreatorOpinion     string   `json:"creatorOpinion"`
	RestaurantLocation string   `json:"restaurantLocation"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	FormattedAddress   string   `json:"formattedAddress,omitempty"`
	Priority           Priority `json:"priority,omitempty"`
	IsPorkSpecialist   *bool    `json:"isPorkSpecialist,omitempty"`
}

// IsClassified reports whether a already carries a priority. The pork flag
// alone does not count.
func (a *RestaurantAnalysis) IsClassified() bool {
	return a.Priority != ""
}

// HasCoordinates reports whether geocoding populated both coordinates.
func (a *RestaurantAnalysis) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// ClearGeocode removes the geocoding fields.
func (a *RestaurantAnalysis) ClearGeocode() {
	a.Latitude = nil
	a.Longitude = nil
	a.FormattedAddress = ""
}

// ApplyGeocode copies a successful geocoding result onto a.
func (a *RestaurantAnalysis) ApplyGeocode(g GeocodeResult) {
	if !g.Found() {
		return
	}
	lat, lng := *g.Latitude, *g.Longitude
	a.Latitude = &lat
	a.Longitude = &lng
	a.FormattedAddress = g.FormattedAddress
}

// ScrapedData is one analyzed video-restaurant pairing.
type ScrapedData struct {
	ID           string              `json:"id"`
	VideoURL     string              `json:"videoUrl"`
	Caption      string              `json:"caption"`
	Analysis     *RestaurantAnalysis `json:"analysis"`
	ThumbnailURL string              `json:"thumbnailUrl,omitempty"`
	Likes        *int64              `json:"likes,omitempty"`
	Saves        *int64              `json:"saves,omitempty"`
	Shares       *int64              `json:"shares,omitempty"`
	CreatorName  string              `json:"creatorName,omitempty"`
	IsNew        bool                `json:"isNew,omitempty"`
}

// DedupKey is the lowercase concatenation of restaurant name and location.
// Records without analysis have an empty key.
func (d *ScrapedData) DedupKey() string {
	if d.Analysis == nil {
		return ""
	}
	return toLower(d.Analysis.RestaurantName + d.Analysis.RestaurantLocation)
}

// EngagementScore weighs saves and shares above likes since they signal an
// intention to visit.
func (d *ScrapedData) EngagementScore() int64 {
	return deref(d.Likes) + deref(d.Saves)*5 + deref(d.Shares)*4
}

// GeocodeResult is the outcome of resolving a venue to coordinates. Error is
// set when the lookup failed or found nothing; coordinates are nil then.
type GeocodeResult struct {
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	Name             string   `json:"name,omitempty"`
	PlaceID          string   `json:"placeId,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// Found reports whether the result carries coordinates.
func (g GeocodeResult) Found() bool {
	return g.Error == "" && g.Latitude != nil && g.Longitude != nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
