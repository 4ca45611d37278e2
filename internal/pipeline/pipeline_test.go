package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sichef/sichef/internal/metrics"
	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/profile"
)

const profileURL = "https://www.tiktok.com/@mangiaroma"

func ptr[T any](v T) *T { return &v }

func videoURL(i int) string {
	return fmt.Sprintf("https://www.tiktok.com/@mangiaroma/video/%d", i)
}

func review(name, location, opinion string) model.AnalysisResult {
	return model.AnalysisResult{
		IsRestaurantReview: true,
		RestaurantName:     name,
		RestaurantLocation: location,
		CreatorOpinion:     opinion,
		Restaurants: []model.BasicRestaurant{{
			RestaurantName:     name,
			DishDescription:    "carbonara",
			CreatorOpinion:     opinion,
			RestaurantLocation: location,
		}},
	}
}

func found(lat, lng float64, addr string) model.GeocodeResult {
	return model.GeocodeResult{Latitude: &lat, Longitude: &lng, FormattedAddress: addr}
}

func TestIsSingleVideo(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.tiktok.com/@mangiaroma/video/7301", true},
		{"https://WWW.TIKTOK.COM/@mangiaroma/VIDEO/7301", true},
		{"https://www.instagram.com/reel/C1abc/", true},
		{"https://www.tiktok.com/@mangiaroma", false},
		{"https://www.instagram.com/mangiaroma/", false},
		{"https://www.instagram.com/p/C1abc/", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSingleVideo(tt.url))
		})
	}
}

func TestLimit(t *testing.T) {
	p := New(Deps{}, Config{DefaultLimit: 10, MaxLimit: 200})

	assert.Equal(t, 10, p.Limit(0))
	assert.Equal(t, 10, p.Limit(-3))
	assert.Equal(t, 5, p.Limit(5))
	assert.Equal(t, 200, p.Limit(201))
	assert.Equal(t, 200, p.Limit(200))
}

func TestMatchesKeywords(t *testing.T) {
	assert.True(t, MatchesKeywords("Carbonara a Roma", ""))
	assert.True(t, MatchesKeywords("Carbonara a Roma", "  "))
	assert.True(t, MatchesKeywords("Carbonara a Roma", "CARBONARA"))
	assert.False(t, MatchesKeywords("Carbonara a Roma", "pizza"))
	assert.False(t, MatchesKeywords("", "pizza"))
}

func TestCombineText(t *testing.T) {
	assert.Equal(t, "caption", CombineText("caption", ""))
	assert.Equal(t, "transcript", CombineText("", "transcript"))
	assert.Equal(t, "caption\ntranscript", CombineText("caption", "transcript"))
	assert.Equal(t, "caption", CombineText("caption", "caption"), "a fallback transcript equal to the caption is not repeated")
	merged := "DESCRIZIONE ORIGINALE:\ncaption\n\nTRASCRIZIONE AUDIO:\ntranscript"
	assert.Equal(t, merged, CombineText("caption", merged))
}

func TestRun_ProfileEndToEnd(t *testing.T) {
	m := newMocks()
	urls := make([]string, 5)
	for i := range urls {
		urls[i] = videoURL(i)
	}
	m.expander.On("Expand", mock.Anything, profileURL, 5).Return(profile.Result{VideoURLs: urls}, nil).Once()

	for i, u := range urls {
		m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{
			Platform:    model.PlatformTikTok,
			Description: fmt.Sprintf("caption %d", i),
			Author:      "mangiaroma",
			Likes:       ptr(int64(100 * i)),
		}).Once()
	}
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "parlato"})

	m.analyzer.On("Analyze", mock.Anything, "caption 1\nparlato").Return(review("Da Enzo", "Roma", "stupendo, buonissimo"))
	m.analyzer.On("Analyze", mock.Anything, "caption 3\nparlato").Return(review("Bonci", "Roma", "buono"))
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(model.AnalysisResult{})

	m.geocoder.On("Lookup", mock.Anything, mock.Anything, "Roma").Return(found(41.9, 12.5, "Roma RM, Italia"))

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: profileURL, Limit: 5})

	require.NoError(t, err)
	require.Len(t, out, 2)
	names := []string{out[0].Analysis.RestaurantName, out[1].Analysis.RestaurantName}
	assert.ElementsMatch(t, []string{"Da Enzo", "Bonci"}, names)
	for _, rec := range out {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.Analysis.Priority)
		assert.NotNil(t, rec.Analysis.IsPorkSpecialist)
		assert.True(t, rec.Analysis.HasCoordinates())
		assert.Equal(t, "mangiaroma", rec.CreatorName)
	}
	assert.NotEqual(t, out[0].ID, out[1].ID)
	// Three non-reviews each got a caption-only retry.
	m.analyzer.AssertNumberOfCalls(t, "Analyze", 5+3)
}

func TestRun_SingleVideoSkipsExpansion(t *testing.T) {
	m := newMocks()
	u := videoURL(9)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{Description: "Carbonara da Enzo"}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "Carbonara da Enzo", Skipped: true}).Once()
	m.analyzer.On("Analyze", mock.Anything, "Carbonara da Enzo").Return(review("Da Enzo", "Roma", "good")).Once()
	m.geocoder.On("Lookup", mock.Anything, "Da Enzo", "Roma").Return(model.GeocodeResult{Error: "No results found"}).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Analysis.HasCoordinates())
	assert.Equal(t, u, out[0].VideoURL)
	m.expander.AssertNotCalled(t, "Expand", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_KeywordFilterDropsVideo(t *testing.T) {
	m := newMocks()
	u := videoURL(1)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{Description: "La migliore pizza di Napoli"}).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u, Keywords: "Carbonara"})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	m.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)
	m.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestRun_CaptionOnlyRetry(t *testing.T) {
	m := newMocks()
	u := videoURL(2)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{Description: "1. Da Enzo 2. Roscioli"}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "musica"}).Once()
	m.analyzer.On("Analyze", mock.Anything, "1. Da Enzo 2. Roscioli\nmusica").Return(model.AnalysisResult{}).Once()
	m.analyzer.On("Analyze", mock.Anything, "1. Da Enzo 2. Roscioli").Return(model.AnalysisResult{
		IsRestaurantReview: true,
		Restaurants: []model.BasicRestaurant{
			{RestaurantName: "Da Enzo", RestaurantLocation: "Roma"},
			{RestaurantName: "Roscioli", RestaurantLocation: "Roma"},
		},
	}).Once()
	m.geocoder.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(model.GeocodeResult{Error: "No results found"}).Twice()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestRun_AssemblyDefaults(t *testing.T) {
	m := newMocks()
	u := videoURL(3)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{
		Description:  "caption",
		ThumbnailURL: "https://cdn.example/t.jpg",
		Saves:        ptr(int64(7)),
	}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "caption", Error: "Audio URL mancante"}).Once()
	m.analyzer.On("Analyze", mock.Anything, "caption").Return(model.AnalysisResult{
		IsRestaurantReview: true,
		Restaurants: []model.BasicRestaurant{
			{RestaurantName: "  "},
			{RestaurantName: "Pizzeria Gino"},
		},
	}).Once()
	m.geocoder.On("Lookup", mock.Anything, "Pizzeria Gino", "").Return(found(40.85, 14.26, "Via dei Tribunali, Napoli")).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	require.Len(t, out, 1)
	a := out[0].Analysis
	assert.Equal(t, "N/A", a.DishDescription)
	assert.Equal(t, "N/A", a.CreatorOpinion)
	assert.Equal(t, "Via dei Tribunali, Napoli", a.RestaurantLocation)
	assert.Equal(t, "Via dei Tribunali, Napoli", a.FormattedAddress)
	assert.Equal(t, model.PriorityIfInArea, a.Priority, "unclassified mentions are classified at assembly")
	require.NotNil(t, a.IsPorkSpecialist)
	assert.False(t, *a.IsPorkSpecialist)
	assert.Equal(t, "https://cdn.example/t.jpg", out[0].ThumbnailURL)
	assert.Equal(t, int64(7), *out[0].Saves)
}

func TestRun_KeepsUpstreamClassification(t *testing.T) {
	m := newMocks()
	u := videoURL(4)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{Description: "caption"}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "caption", Skipped: true}).Once()
	m.analyzer.On("Analyze", mock.Anything, "caption").Return(model.AnalysisResult{
		IsRestaurantReview: true,
		Restaurants: []model.BasicRestaurant{{
			RestaurantName:   "Da Enzo",
			Priority:         model.PriorityMustVisit,
			IsPorkSpecialist: ptr(true),
		}},
	}).Once()
	m.geocoder.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(model.GeocodeResult{Error: "No results found"}).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.PriorityMustVisit, out[0].Analysis.Priority)
	assert.True(t, *out[0].Analysis.IsPorkSpecialist)
}

func TestRun_AcquireFailureYieldsNothing(t *testing.T) {
	m := newMocks()
	u := videoURL(5)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{Platform: model.PlatformTikTok, Error: "blocked"}).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRun_AnalysisErrorYieldsNothing(t *testing.T) {
	m := newMocks()
	u := videoURL(6)
	m.acquirer.On("Acquire", mock.Anything, u).Return(model.VideoDetails{}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{}).Once()
	m.analyzer.On("Analyze", mock.Anything, "").Return(model.AnalysisResult{Error: "Missing text to analyze"}).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: u})

	require.NoError(t, err)
	assert.Empty(t, out)
	m.geocoder.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_ExpansionError(t *testing.T) {
	m := newMocks()
	m.expander.On("Expand", mock.Anything, profileURL, 10).Return(profile.Result{}, errors.New("actor failed")).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: profileURL})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "actor failed")
	assert.Nil(t, out)
}

func TestRun_EmptyProfile(t *testing.T) {
	m := newMocks()
	m.expander.On("Expand", mock.Anything, profileURL, 10).Return(profile.Result{VideoURLs: []string{}, NoResults: true}, nil).Once()

	out, err := New(m.deps(), Config{}).Run(context.Background(), Request{URL: profileURL})

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestRun_MissingURL(t *testing.T) {
	_, err := New(newMocks().deps(), Config{}).Run(context.Background(), Request{URL: " "})
	require.Error(t, err)
}

func TestRun_NoExpander(t *testing.T) {
	deps := newMocks().deps()
	deps.Expander = nil

	_, err := New(deps, Config{}).Run(context.Background(), Request{URL: profileURL})

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotConfigured))
}

func TestRun_TimeoutAbortsBatch(t *testing.T) {
	m := newMocks()
	u := videoURL(7)
	m.acquirer.On("Acquire", mock.Anything, u).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(model.VideoDetails{Error: "context deadline exceeded"}).Once()

	out, err := New(m.deps(), Config{Timeout: 20 * time.Millisecond}).Run(context.Background(), Request{URL: u})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Nil(t, out)
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := newMocks()
	reg := metrics.New()
	deps := m.deps()
	deps.Metrics = reg

	ok, filtered := videoURL(10), videoURL(11)
	m.expander.On("Expand", mock.Anything, profileURL, 2).Return(profile.Result{VideoURLs: []string{ok, filtered}}, nil).Once()
	m.acquirer.On("Acquire", mock.Anything, ok).Return(model.VideoDetails{Description: "carbonara da Enzo"}).Once()
	m.acquirer.On("Acquire", mock.Anything, filtered).Return(model.VideoDetails{Description: "pizza"}).Once()
	m.transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(model.TranscriptionResult{Text: "carbonara da Enzo", Skipped: true}).Once()
	m.analyzer.On("Analyze", mock.Anything, "carbonara da Enzo").Return(review("Da Enzo", "Roma", "good")).Once()
	m.geocoder.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return(found(41.9, 12.5, "Roma")).Once()

	out, err := New(deps, Config{}).Run(context.Background(), Request{URL: profileURL, Limit: 2, Keywords: "carbonara"})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.VideosTotal.WithLabelValues(metrics.VideoOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.VideosTotal.WithLabelValues(metrics.VideoFiltered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TranscriptionsTotal.WithLabelValues(metrics.TranscriptionSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RecordsTotal))
}
