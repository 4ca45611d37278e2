// Package mocks provides test doubles for the tiktok client.
package mocks

import (
	"context"
	"encoding/json"

	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FetchItem provides a mock function with given fields: ctx, videoURL
func (_m *MockClient) FetchItem(ctx context.Context, videoURL string) (json.RawMessage, error) {
	ret := _m.Called(ctx, videoURL)

	var r0 json.RawMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(json.RawMessage)
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
