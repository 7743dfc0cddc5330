package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Effect is the running work started for an effect invocation. Run blocks
// until the work completes or ctx is cancelled and returns the events to
// feed back into the machine. A cancelled effect returns no events.
type Effect[E any] interface {
	// ID is the stable identifier of the effect, matching the
	// invocation that started it.
	ID() string
	// Run performs the effect body.
	Run(ctx context.Context) []E
}

// EffectHandler builds the runnable effect for an invocation. It returns
// false for invocations that carry no work (cancellations are handled by
// the dispatcher itself).
type EffectHandler[E any, I Invocation] interface {
	Create(invocation I) (Effect[E], bool)
}

// Dispatcher executes effect invocations: it spawns managed effects as
// goroutines tracked by effect id for cancellation, runs unmanaged
// (emit) effects synchronously, and feeds every produced event back into
// the machine through the sink.
type Dispatcher[E any, I Invocation] struct {
	handler EffectHandler[E, I]
	sink    func(events []E)
	log     zerolog.Logger

	mu      sync.Mutex
	running map[string]*runningEffect
	wg      sync.WaitGroup
	closed  bool
}

type runningEffect struct {
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher handing produced events to sink.
func NewDispatcher[E any, I Invocation](handler EffectHandler[E, I], sink func(events []E), log zerolog.Logger) *Dispatcher[E, I] {
	return &Dispatcher[E, I]{
		handler: handler,
		sink:    sink,
		log:     log,
		running: make(map[string]*runningEffect),
	}
}

// Dispatch executes the invocations in order. Cancellations signal the
// in-flight effect with the targeted id; start invocations spawn the
// effect returned by the handler.
func (d *Dispatcher[E, I]) Dispatch(invocations []I) {
	for _, invocation := range invocations {
		if invocation.Cancelling() {
			d.cancelEffect(invocation.CancelTarget())
			continue
		}

		effect, ok := d.handler.Create(invocation)
		if !ok {
			continue
		}

		if !invocation.Managed() {
			// Emit effects fan out synchronously and never fail.
			d.sinkEvents(effect.Run(context.Background()))
			continue
		}
		d.startEffect(effect)
	}
}

// CancelAll aborts every in-flight managed effect.
func (d *Dispatcher[E, I]) CancelAll() {
	d.mu.Lock()
	for id, run := range d.running {
		run.cancel()
		delete(d.running, id)
	}
	d.mu.Unlock()
}

// Close cancels all in-flight effects and waits for their goroutines to
// return. The dispatcher accepts no work afterwards.
func (d *Dispatcher[E, I]) Close() {
	d.mu.Lock()
	d.closed = true
	for id, run := range d.running {
		run.cancel()
		delete(d.running, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher[E, I]) startEffect(effect Effect[E]) {
	ctx, cancel := context.WithCancel(context.Background())
	run := &runningEffect{cancel: cancel}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := d.running[effect.ID()]; ok {
		// The exit-before-enter ordering should make this impossible;
		// recover by aborting the stale effect.
		d.log.Warn().Str("effect", effect.ID()).Msg("superseding still-running effect")
		prev.cancel()
	}
	d.running[effect.ID()] = run
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		d.log.Debug().Str("effect", effect.ID()).Msg("effect started")
		events := effect.Run(ctx)

		d.mu.Lock()
		if d.running[effect.ID()] == run {
			delete(d.running, effect.ID())
		}
		d.mu.Unlock()

		d.sinkEvents(events)
	}()
}

func (d *Dispatcher[E, I]) cancelEffect(id string) {
	d.mu.Lock()
	run, ok := d.running[id]
	if ok {
		delete(d.running, id)
	}
	d.mu.Unlock()

	if ok {
		d.log.Debug().Str("effect", id).Msg("effect cancelled")
		run.cancel()
	}
}

func (d *Dispatcher[E, I]) sinkEvents(events []E) {
	if len(events) == 0 {
		return
	}
	d.sink(events)
}
