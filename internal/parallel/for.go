package parallel

import "github.com/printforge/slicer/internal/cancel"

// For runs fn(i) for every i in [0, n) on the pool and waits for all
// iterations to finish. Iterations observe the cancellation token through
// fn; For itself returns the token's error after the batch completes, so a
// canceled run still drains cleanly.
func For(pool *WorkerPool, n int, tok *cancel.Token, fn func(i int)) error {
	if n <= 0 {
		return tok.Err()
	}
	if pool == nil || pool.Workers() == 1 {
		for i := 0; i < n; i++ {
			if err := tok.Err(); err != nil {
				return err
			}
			fn(i)
		}
		return tok.Err()
	}

	work := make([]func(), n)
	for i := range work {
		i := i
		work[i] = func() {
			if tok.Err() != nil {
				return
			}
			fn(i)
		}
	}
	pool.ExecuteAll(work)
	return tok.Err()
}
