package geocode

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/pkg/google"
	"github.com/sichef/sichef/pkg/nominatim"
)

// Provider is a place-search backend. Search returns nil without error when
// nothing matched.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) (*model.GeocodeResult, error)
}

// GoogleProvider searches Places text search.
type GoogleProvider struct {
	client google.Client
}

// NewGoogleProvider wraps a Places client.
func NewGoogleProvider(client google.Client) *GoogleProvider {
	return &GoogleProvider{client: client}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Search implements Provider. Only the top-ranked place is considered; one
// without a location is no match.
func (p *GoogleProvider) Search(ctx context.Context, query string) (*model.GeocodeResult, error) {
	resp, err := p.client.TextSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(resp.Places) == 0 || resp.Places[0].Location == nil {
		return nil, nil
	}
	top := resp.Places[0]
	lat, lng := top.Location.Latitude, top.Location.Longitude
	return &model.GeocodeResult{
		Latitude:         &lat,
		Longitude:        &lng,
		FormattedAddress: top.FormattedAddress,
		Name:             top.DisplayName.Text,
		PlaceID:          top.ID,
	}, nil
}

// NominatimProvider searches OpenStreetMap's Nominatim.
type NominatimProvider struct {
	client nominatim.Client
}

// NewNominatimProvider wraps a Nominatim client.
func NewNominatimProvider(client nominatim.Client) *NominatimProvider {
	return &NominatimProvider{client: client}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Search implements Provider. Nominatim carries no place id comparable to
// Places, so PlaceID stays empty.
func (p *NominatimProvider) Search(ctx context.Context, query string) (*model.GeocodeResult, error) {
	places, err := p.client.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}
	top := places[0]
	lat, lng, err := top.Coordinates()
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim coordinates")
	}
	return &model.GeocodeResult{
		Latitude:         &lat,
		Longitude:        &lng,
		FormattedAddress: top.DisplayName,
		Name:             top.Name,
	}, nil
}
