package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/classify"
	"github.com/sichef/sichef/internal/model"
)

// SortOrder names a dataset ordering.
type SortOrder string

// Sort orders.
const (
	SortEngagement SortOrder = "engagement"
	SortLikes      SortOrder = "likes"
	SortSaves      SortOrder = "saves"
	SortShares     SortOrder = "shares"
	SortPriority   SortOrder = "priority"
)

// ParseSortOrder validates s. Empty means engagement.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortEngagement, nil
	case SortEngagement, SortLikes, SortSaves, SortShares, SortPriority:
		return o, nil
	default:
		return "", eris.Errorf("aggregate: unknown sort order %q", s)
	}
}

// Search keeps records with analysis whose name, dish, location or caption
// contains term, case-insensitively. An empty term keeps every analyzed
// record.
func Search(records []model.ScrapedData, term string) []model.ScrapedData {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]model.ScrapedData, 0, len(records))
	for _, r := range records {
		if r.Analysis == nil {
			continue
		}
		if term == "" || matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.ScrapedData, term string) bool {
	for _, field := range []string{
		r.Analysis.RestaurantName,
		r.Analysis.DishDescription,
		r.Analysis.RestaurantLocation,
		r.Caption,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of records. Counts sort descending.
func Sort(records []model.ScrapedData, order SortOrder) []model.ScrapedData {
	out := slices.Clone(records)
	if order == SortPriority {
		classify.SortByPriority(out)
		return out
	}

	var metric func(*model.ScrapedData) int64
	switch order {
	case SortLikes:
		metric = func(r *model.ScrapedData) int64 { return value(r.Likes) }
	case SortSaves:
		metric = func(r *model.ScrapedData) int64 { return value(r.Saves) }
	case SortShares:
		metric = func(r *model.ScrapedData) int64 { return value(r.Shares) }
	default:
		metric = (*model.ScrapedData).EngagementScore
	}
	slices.SortStableFunc(out, func(a, b model.ScrapedData) int {
		return cmp.Compare(metric(&b), metric(&a))
	})
	return out
}

func value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// Stats summarizes the classified records.
type Stats struct {
	Total           int `json:"total"`
	MustVisit       int `json:"mustVisit"`
	Recommended     int `json:"recommended"`
	IfInArea        int `json:"ifInArea"`
	Unclassified    int `json:"unclassified"`
	PorkSpecialists int `json:"porkSpecialists"`
	Geocoded        int `json:"geocoded"`
}

// Summarize counts records with analysis by tier.
func Summarize(records []model.ScrapedData) Stats {
	var s Stats
	for _, r := range records {
		a := r.Analysis
		if a == nil {
			continue
		}
		s.Total++
		switch a.Priority {
		case model.PriorityMustVisit:
			s.MustVisit++
		case model.PriorityRecommended:
			s.Recommended++
		case model.PriorityIfInArea:
			s.IfInArea++
		default:
			s.Unclassified++
		}
		if a.IsPorkSpecialist != nil && *a.IsPorkSpecialist {
			s.PorkSpecialists++
		}
		if a.HasCoordinates() {
			s.Geocoded++
		}
	}
	return s
}
