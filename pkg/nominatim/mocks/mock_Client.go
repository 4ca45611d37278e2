// Package mocks provides test doubles for the nominatim client.
package mocks

import (
	"context"

	nominatim "github.com/sichef/sichef/pkg/nominatim"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query, limit
func (_m *MockClient) Search(ctx context.Context, query string, limit int) ([]nominatim.Place, error) {
	ret := _m.Called(ctx, query, limit)

	var r0 []nominatim.Place
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]nominatim.Place)
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
