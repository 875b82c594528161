package stats

import (
	"context"

	"github.com/convox/logger"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
	"golang.org/x/sync/errgroup"
)

// Source provides raw counters for a runtime container name
type Source interface {
	ContainerStats(ctx context.Context, name string) (*model.RawStats, error)
}

// Aggregator fetches and reshapes stats for registry names. A failure for one
// name never affects the others.
type Aggregator struct {
	Source  Source
	Prefix  string
	Workers int
	Logger  *logger.Logger
}

// Container returns the stats of a single container, or an error marker
func (a *Aggregator) Container(ctx context.Context, name string) model.ContainerStats {
	raw, err := a.Source.ContainerStats(ctx, a.Prefix+name)
	if err == nil && raw == nil {
		err = fault.Errorf(fault.KindRuntime, "no stats for %s%s", a.Prefix, name)
	}
	if err != nil {
		if a.Logger != nil {
			a.Logger.At("container").Logf("name=%q state=error kind=%s error=%q", name, fault.KindOf(err), err)
		}
		kind := fault.KindOf(err)
		if kind == fault.KindNone {
			kind = fault.KindRuntime
		}
		return model.ContainerStats{Error: err.Error(), ErrorKind: kind}
	}

	return FromRaw(*raw)
}

// Fleet aggregates names concurrently, at most Workers at a time. The result
// has one entry per name, in input order.
func (a *Aggregator) Fleet(ctx context.Context, names []string) []model.ContainerUpdate {
	updates := make([]model.ContainerUpdate, len(names))

	g := errgroup.Group{}
	if a.Workers > 0 {
		g.SetLimit(a.Workers)
	}

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			updates[i] = model.ContainerUpdate{Name: name, Stats: a.Container(ctx, name)}
			return nil
		})
	}

	// never fails: Container isolates errors per name
	_ = g.Wait()

	return updates
}
