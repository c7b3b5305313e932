package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Fanout delivers each event to every sink. A nil Fanout is a valid no-op.
type Fanout struct {
	sinks []Publisher
}

// NewFanout wraps already-built publishers; nil entries are dropped.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.sinks = append(f.sinks, p)
		}
	}
	return f
}

// Open builds a publisher for each sink. When one fails, the ones already built are closed.
func Open(ctx context.Context, sinks []SinkConfig, log Logger) (*Fanout, error) {
	f := &Fanout{}
	for _, cfg := range sinks {
		pub, err := build(ctx, cfg, log)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		f.sinks = append(f.sinks, pub)
	}
	return f, nil
}

func build(ctx context.Context, cfg SinkConfig, log Logger) (Publisher, error) {
	if err := prepareSink(&cfg); err != nil {
		return nil, err
	}
	pub, err := sinkKinds[cfg.Type].build(ctx, cfg, ensureLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build %s publisher %q: %w", cfg.Type, cfg.ID, err)
	}
	return pub, nil
}

// Publish sends evt to all sinks concurrently and waits for every delivery.
// It returns how many sinks accepted the event and the joined delivery errors,
// in sink order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f.Size() == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.sinks))
	var wg sync.WaitGroup
	for i, p := range f.sinks {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(errs...)
}

// Size is the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close releases sinks that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.sinks {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher[%s]: %w", p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
