package docker

import (
	"context"

	"github.com/rusenback/webtopd/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockRuntime is a testify mock of Runtime
type MockRuntime struct {
	mock.Mock
}

func (m *MockRuntime) ListContainers(ctx context.Context, prefix string) ([]model.Container, error) {
	ret := m.Called(prefix)

	var r0 []model.Container
	if rf, ok := ret.Get(0).(func(string) []model.Container); ok {
		r0 = rf(prefix)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Container)
	}

	return r0, ret.Error(1)
}

func (m *MockRuntime) ContainerStats(ctx context.Context, name string) (*model.RawStats, error) {
	ret := m.Called(name)

	var r0 *model.RawStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.RawStats)
	}

	return r0, ret.Error(1)
}

func (m *MockRuntime) StartContainer(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *MockRuntime) StopContainer(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *MockRuntime) RestartContainer(ctx context.Context, name string) error {
	return m.Called(name).Error(0)
}

func (m *MockRuntime) ContainerLogs(ctx context.Context, name string, lines int) (string, error) {
	ret := m.Called(name, lines)
	return ret.String(0), ret.Error(1)
}

func (m *MockRuntime) ContainerProcesses(ctx context.Context, name string) ([]model.Process, error) {
	ret := m.Called(name)

	var r0 []model.Process
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Process)
	}

	return r0, ret.Error(1)
}

func (m *MockRuntime) Close() error {
	return m.Called().Error(0)
}

var _ Runtime = (*MockRuntime)(nil)
