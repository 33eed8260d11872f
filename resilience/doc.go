// Package resilience paces producers that push into a bounded queue.
//
//   - Retry repeats a non-blocking attempt with exponential backoff until
//     it succeeds, a non-retryable error stops it, or the context ends.
//   - Limiter is a token bucket that caps how fast items are pushed.
//
// A producer using TryPush combines both:
//
//	lim := resilience.NewLimiter(resilience.LimiterConfig{Rate: 10_000, Burst: 100})
//	attempts, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
//	    if err := lim.Wait(ctx); err != nil {
//	        return err
//	    }
//	    if q.TryPush(v) {
//	        return nil
//	    }
//	    return resilience.ErrFull
//	})
package resilience
