package mocks

import (
	"github.com/brettbedarf/jsontree"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements jsontree.Backend for testing across packages
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) WriteField(path jsontree.Path, rec jsontree.Record) error {
	args := m.Called(path, rec)
	return args.Error(0)
}

func (m *MockBackend) ReadField(path jsontree.Path) (jsontree.Record, error) {
	args := m.Called(path)

	// Handle function return types (for complex tests)
	if fn, ok := args.Get(0).(func(jsontree.Path) jsontree.Record); ok {
		return fn(path), args.Error(1)
	}

	if args.Get(0) == nil {
		return jsontree.Record{}, args.Error(1)
	}
	return args.Get(0).(jsontree.Record), args.Error(1)
}

func (m *MockBackend) EnsurePath(path jsontree.Path) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockBackend) Stat(path jsontree.Path) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}

func (m *MockBackend) List(path jsontree.Path) ([]string, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ jsontree.Backend = (*MockBackend)(nil)

// MockBackendProvider implements jsontree.BackendProvider for testing across packages
type MockBackendProvider struct {
	mock.Mock
}

func (m *MockBackendProvider) NewBackend(raw []byte) (jsontree.Backend, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jsontree.Backend), args.Error(1)
}

var _ jsontree.BackendProvider = (*MockBackendProvider)(nil)
