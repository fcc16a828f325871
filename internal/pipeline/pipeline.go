// Package pipeline drives items through a fixed chain of stateful stages
// with bounded, ordered concurrency. Every stage runs on its own goroutine
// and the stages are connected by buffered channels, so CPU-heavy
// generation overlaps with filtering and I/O; order is preserved end to end
// because each stage is single-goroutine and channels are FIFO.
//
// Stages that buffer internally (a pressure equalizer holding one layer
// back, a cooling buffer accumulating an object) release their tail through
// an explicit Flush call after the last input, rather than being fed
// sentinel no-op items.
package pipeline

import (
	"sync"

	"github.com/printforge/slicer/internal/cancel"
)

// Stage is one ordered transformation. Process consumes the next item and
// returns zero or more items to pass on; Flush drains anything the stage
// still holds after the final item. Both run on the stage's own goroutine,
// never concurrently with each other.
type Stage[T any] interface {
	Process(item T) ([]T, error)
	Flush() ([]T, error)
}

// Func adapts a stateless function to a Stage.
type Func[T any] func(item T) ([]T, error)

// Process implements Stage.
func (f Func[T]) Process(item T) ([]T, error) { return f(item) }

// Flush implements Stage.
func (f Func[T]) Flush() ([]T, error) { return nil, nil }

// DefaultDepth is the channel buffer between stages: enough to keep stages
// busy without holding many layers of text in flight.
const DefaultDepth = 4

// Config describes one pipeline run.
type Config[T any] struct {
	// Produce is called with 0..N-1 in order on the pipeline's producer
	// goroutine and feeds the first stage.
	Produce func(i int) (T, error)
	N       int

	Stages []Stage[T]

	// Sink receives every item in strict input order.
	Sink func(item T) error

	// Depth is the inter-stage buffer, DefaultDepth when zero.
	Depth int
}

// Run executes the pipeline to completion. The first error (or a cancel
// request) stops every stage; the error is returned after all goroutines
// have unwound. The cancellation token is polled between items.
func Run[T any](tok *cancel.Token, cfg Config[T]) error {
	depth := cfg.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}

	// A private token mirrors the caller's so an internal error can stop
	// upstream stages without canceling the whole job token.
	stop := cancel.New()

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil && err != nil {
			firstErr = err
		}
		mu.Unlock()
		stop.Cancel()
	}
	stopped := func() bool { return stop.Err() != nil || tok.Err() != nil }

	in := make(chan T, depth)
	var wg sync.WaitGroup

	// Producer.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(in)
		for i := 0; i < cfg.N; i++ {
			if stopped() {
				return
			}
			item, err := cfg.Produce(i)
			if err != nil {
				fail(err)
				return
			}
			in <- item
		}
	}()

	// Stages.
	prev := in
	for _, st := range cfg.Stages {
		st := st
		out := make(chan T, depth)
		wg.Add(1)
		go func(src <-chan T, dst chan<- T) {
			defer wg.Done()
			defer close(dst)
			forward := func(items []T, err error) bool {
				if err != nil {
					fail(err)
					return false
				}
				for _, it := range items {
					dst <- it
				}
				return true
			}
			for item := range src {
				if stopped() {
					continue // drain src so upstream never blocks
				}
				if !forward(st.Process(item)) {
					continue
				}
			}
			if !stopped() {
				forward(st.Flush())
			}
		}(prev, out)
		prev = out
	}

	// Sink.
	wg.Add(1)
	go func(src <-chan T) {
		defer wg.Done()
		for item := range src {
			if stopped() {
				continue
			}
			if err := cfg.Sink(item); err != nil {
				fail(err)
			}
		}
	}(prev)

	wg.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return err
	}
	return tok.Err()
}
