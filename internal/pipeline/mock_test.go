package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/profile"
)

type mockAcquirer struct {
	mock.Mock
}

func (m *mockAcquirer) Acquire(ctx context.Context, videoURL string) model.VideoDetails {
	return m.Called(ctx, videoURL).Get(0).(model.VideoDetails)
}

type mockExpander struct {
	mock.Mock
}

func (m *mockExpander) Expand(ctx context.Context, profileURL string, limit int) (profile.Result, error) {
	args := m.Called(ctx, profileURL, limit)
	return args.Get(0).(profile.Result), args.Error(1)
}

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, d model.VideoDetails) model.TranscriptionResult {
	return m.Called(ctx, d).Get(0).(model.TranscriptionResult)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text string) model.AnalysisResult {
	return m.Called(ctx, text).Get(0).(model.AnalysisResult)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Lookup(ctx context.Context, name, location string) model.GeocodeResult {
	return m.Called(ctx, name, location).Get(0).(model.GeocodeResult)
}

type mocks struct {
	acquirer    *mockAcquirer
	expander    *mockExpander
	transcriber *mockTranscriber
	analyzer    *mockAnalyzer
	geocoder    *mockGeocoder
}

func newMocks() *mocks {
	return &mocks{
		acquirer:    &mockAcquirer{},
		expander:    &mockExpander{},
		transcriber: &mockTranscriber{},
		analyzer:    &mockAnalyzer{},
		geocoder:    &mockGeocoder{},
	}
}

func (m *mocks) deps() Deps {
	return Deps{
		Acquirer:    m.acquirer,
		Expander:    m.expander,
		Transcriber: m.transcriber,
		Analyzer:    m.analyzer,
		Geocoder:    m.geocoder,
	}
}
