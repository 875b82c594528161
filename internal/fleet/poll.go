package fleet

import (
	"context"
	"time"

	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/model"
)

const DefaultInterval = 5 * time.Second

// Sink receives the loop's messages. A Send error closes the channel.
type Sink interface {
	Send(ctx context.Context, msg model.Message) error
}

// Source is what a tick reads
type Source interface {
	SystemStats(ctx context.Context) model.SystemStats
	Updates(ctx context.Context) []model.ContainerUpdate
}

// Loop emits a system_stats then a container_updates message every
// Interval until its context ends or a send fails. One Loop instance serves
// one channel; it holds nothing across ticks.
type Loop struct {
	Source   Source
	Interval time.Duration
	Logger   *logger.Logger
}

// Run blocks until ctx is done or sink fails. It returns nil on
// cancellation and the send error otherwise.
func (l *Loop) Run(ctx context.Context, sink Sink) error {
	log := l.Logger.At("poll").Start()
	log.Logf("state=connected interval=%s", l.interval())

	ticks := 0
	defer func() {
		log.Logf("state=closed ticks=%d", ticks)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := l.Tick(ctx, sink); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ticks++

		timer.Reset(l.interval())
	}
}

// Go runs the loop in the background. The returned stop cancels it and
// waits for Run to return, so sink receives nothing after stop.
func (l *Loop) Go(ctx context.Context, sink Sink) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := l.Run(ctx, sink); err != nil {
			l.Logger.At("poll").Error(err)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Tick computes and sends one pair of messages. Nothing is sent once ctx is
// done.
func (l *Loop) Tick(ctx context.Context, sink Sink) error {
	system := l.Source.SystemStats(ctx)
	updates := l.Source.Updates(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sink.Send(ctx, model.SystemStatsMessage(system)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return sink.Send(ctx, model.ContainerUpdatesMessage(updates))
}

func (l *Loop) interval() time.Duration {
	if l.Interval <= 0 {
		return DefaultInterval
	}
	return l.Interval
}
