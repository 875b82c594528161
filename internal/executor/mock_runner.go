package executor

import (
	"context"

	"github.com/rusenback/webtopd/internal/model"
	"github.com/stretchr/testify/mock"
)

// MockRunner is a testify mock of Runner. Expectations match on the
// argument vector, e.g. r.On("Run", []string{"backup", "a"}).
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, args ...string) model.CommandResult {
	if args == nil {
		args = []string{}
	}
	return m.Called(args).Get(0).(model.CommandResult)
}

var _ Runner = (*MockRunner)(nil)
