// Package mocks provides test doubles for the whisper client.
package mocks

import (
	"context"

	whisper "github.com/sichef/sichef/pkg/whisper"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Transcribe provides a mock function with given fields: ctx, req
func (_m *MockClient) Transcribe(ctx context.Context, req whisper.TranscribeRequest) (*whisper.TranscribeResponse, error) {
	ret := _m.Called(ctx, req)

	var r0 *whisper.TranscribeResponse
	if rf, ok := ret.Get(0).(func(context.Context, whisper.TranscribeRequest) *whisper.TranscribeResponse); ok {
		r0 = rf(ctx, req)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*whisper.TranscribeResponse)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
