package goToken

import (
	"context"
	"sync"
	"sync/atomic"
)

// alertDispatcher forwards security alerts to a sink from its own
// goroutine, so the validation hot path never blocks on a slow consumer.
type alertDispatcher struct {
	cfg       AlertConfig
	sink      AlertSink
	ch        chan SecurityAlert
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAlertDispatcher(cfg AlertConfig, sink AlertSink) *alertDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &alertDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan SecurityAlert, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *alertDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case alert := <-d.ch:
			d.sink.Emit(context.Background(), alert)
		case <-d.done:
			for {
				select {
				case alert := <-d.ch:
					d.sink.Emit(context.Background(), alert)
				default:
					return
				}
			}
		}
	}
}

func (d *alertDispatcher) Emit(alert SecurityAlert) {
	if d == nil || d.closed.Load() {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- alert:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- alert:
	case <-d.done:
	}
}

func (d *alertDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops accepting alerts, drains the buffer, and waits for the
// dispatcher goroutine to exit.
func (d *alertDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
