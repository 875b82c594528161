package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rusenback/webtopd/internal/client"
	"github.com/rusenback/webtopd/internal/model"
	"github.com/rusenback/webtopd/internal/storage"
)

// Client is the part of the webtopd API the dashboard uses
type Client interface {
	Subscribe(ctx context.Context) (<-chan client.Event, <-chan error, error)
	Start(ctx context.Context, name string) (model.CommandResult, error)
	Stop(ctx context.Context, name string) (model.CommandResult, error)
	Restart(ctx context.Context, name string) (model.CommandResult, error)
	Logs(ctx context.Context, name string, lines int) (string, error)
	Processes(ctx context.Context, name string) ([]model.Process, error)
	History(ctx context.Context, name, rng string) ([]model.HistoryPoint, error)
}

const (
	logLines      = 200
	maxLogs       = 1000
	maxDataPoints = 150
	refreshEvery  = 5 * time.Second
)

// Model represents the TUI application state
type Model struct {
	client Client
	ctx    context.Context
	cancel func()

	events    <-chan client.Event
	errs      <-chan error
	connected bool

	// credentials were rejected; reconnecting cannot succeed
	authFailed bool

	system     model.SystemStats
	containers []model.ContainerUpdate
	cursor     int
	selected   string
	err        error
	message    string
	width      int
	height     int

	// samples pushed over the channel, per container
	cpuHistory map[string][]float64
	memHistory map[string][]float64

	// recorded history from the server, for the selected container
	history   []model.HistoryPoint
	timeRange storage.TimeRange

	logs           []string
	logsScroll     int
	logsAutoScroll bool

	processes []model.Process
}

// Message types for Bubbletea update loop
type tickMsg time.Time

type connectedMsg struct {
	events <-chan client.Event
	errs   <-chan error
	err    error
}

type eventMsg struct {
	event client.Event
}

type streamClosedMsg struct {
	err error
}

type actionMsg struct {
	message string
	err     error
}

type logsMsg struct {
	name string
	logs string
	err  error
}

type processesMsg struct {
	name      string
	processes []model.Process
	err       error
}

type historyMsg struct {
	name   string
	points []model.HistoryPoint
	err    error
}

// NewModel creates a new TUI model. Cancelling ctx stops the push channel.
func NewModel(ctx context.Context, c Client) Model {
	ctx, cancel := context.WithCancel(ctx)

	return Model{
		client:         c,
		ctx:            ctx,
		cancel:         cancel,
		cpuHistory:     map[string][]float64{},
		memHistory:     map[string][]float64{},
		timeRange:      storage.Range30Min,
		logsAutoScroll: true,
	}
}

// Init connects the push channel and starts the refresh tick
func (m Model) Init() tea.Cmd {
	return tea.Batch(connect(m.ctx, m.client), tickCmd())
}

// Run shows the dashboard until the user quits
func Run(ctx context.Context, c Client) error {
	m := NewModel(ctx, c)
	defer m.cancel()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
