package notification

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/internal/telemetry/metrics"
)

const (
	DefaultWorkers    = 4
	DefaultBufferSize = 1024
	storeTimeout      = 5 * time.Second
)

type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type Store interface {
	Store(ctx context.Context, event Event) error
}

var _ Emitter = (*Dispatcher)(nil)
var _ Emitter = (*Recorder)(nil)

// Dispatcher hands events over to a fixed pool of workers which persist them
// in the store. Emit never blocks: when the buffer is full the event is dropped.
type Dispatcher struct {
	store   Store
	metrics *metrics.Manager

	mutex  sync.RWMutex
	closed bool
	events chan Event
	wg     sync.WaitGroup
}

func NewDispatcher(store Store, workers, bufferSize int, metricsManager *metrics.Manager) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	d := &Dispatcher{
		store:   store,
		metrics: metricsManager,
		events:  make(chan Event, bufferSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) Emit(_ context.Context, event Event) {
	if len(event.Recipients) == 0 {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if d.closed {
		log.Warnf("notification dispatcher closed, dropping [%s] from %d", event.Verb, event.ActorID)
		return
	}

	select {
	case d.events <- event:
		if d.metrics != nil {
			d.metrics.CounterNotificationsEmitted.Inc()
		}
	default:
		log.Warnf("notification buffer full, dropping [%s] from %d", event.Verb, event.ActorID)
		if d.metrics != nil {
			d.metrics.CounterNotificationsDropped.Inc()
		}
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for event := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := d.store.Store(ctx, event); err != nil {
			log.Errorf("store notification [%s] from %d: %s", event.Verb, event.ActorID, err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the buffered ones are stored.
func (d *Dispatcher) Close() {
	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mutex.Unlock()

	d.wg.Wait()
}
