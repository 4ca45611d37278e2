// Package mocks provides test doubles for the apify client.
package mocks

import (
	"context"
	"encoding/json"

	apify "github.com/sichef/sichef/pkg/apify"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// StartRun provides a mock function with given fields: ctx, actorID, input
func (_m *MockClient) StartRun(ctx context.Context, actorID string, input any) (*apify.Run, error) {
	ret := _m.Called(ctx, actorID, input)

	var r0 *apify.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apify.Run)
	}
	return r0, ret.Error(1)
}

// GetRun provides a mock function with given fields: ctx, runID
func (_m *MockClient) GetRun(ctx context.Context, runID string) (*apify.Run, error) {
	ret := _m.Called(ctx, runID)

	var r0 *apify.Run
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*apify.Run)
	}
	return r0, ret.Error(1)
}

// DatasetItems provides a mock function with given fields: ctx, datasetID
func (_m *MockClient) DatasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, datasetID)

	var r0 []json.RawMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]json.RawMessage)
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
