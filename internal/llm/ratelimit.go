package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/pension-mcp/internal/logger"
)

const (
	// Sustained token budget shared by every OpenAI call in the process,
	// kept below the account limit for gpt-4o.
	tokensPerSecond = 10000
	burstTokens     = 40000

	// Statement pages are dense tables; this covers the page image and the
	// JSON rows returned for it.
	estimatedTokensPerPage = 3000

	// Upper bound on pages sent to the model at once.
	defaultMaxWorkers = 4

	maxRetries     = 5
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 32 * time.Second
)

var openAIRateLimiter = rate.NewLimiter(rate.Limit(tokensPerSecond), burstTokens)

// RateLimitedCall waits for the shared limiter, then runs fn, retrying with
// exponential backoff while the API answers 429.
func RateLimitedCall[T any](ctx context.Context, estimatedTokens int, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if estimatedTokens > burstTokens {
		estimatedTokens = burstTokens
	}
	if err := openAIRateLimiter.WaitN(ctx, estimatedTokens); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			log.Info("Retry attempt %d/%d after %v delay", attempt, maxRetries, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}
		if !isRateLimitError(err) {
			return zero, err
		}
		lastErr = err
		log.Warn("Rate limit error (429) on attempt %d/%d: %v", attempt+1, maxRetries+1, err)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded, last error: %w", maxRetries, lastErr)
}

func backoff(attempt int) time.Duration {
	delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
	return min(delay, maxRetryDelay)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WorkerPool bounds the number of concurrent model calls.
type WorkerPool struct {
	semaphore chan struct{}
}

func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &WorkerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// Acquire blocks until a slot is free or ctx is done.
func (wp *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) Release() {
	<-wp.semaphore
}

// ParallelProcess runs processFn over items with bounded concurrency and
// returns the results in item order. The first error wins.
func ParallelProcess[T any, R any](
	ctx context.Context,
	items []T,
	log logger.Logger,
	processFn func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	wp := NewWorkerPool(defaultMaxWorkers)
	results := make([]R, len(items))

	type result struct {
		index int
		value R
		err   error
	}
	resultChan := make(chan result, len(items))

	started := 0
	for i, item := range items {
		if err := wp.Acquire(ctx); err != nil {
			break
		}
		started++
		go func(idx int, itm T) {
			defer wp.Release()
			if err := ctx.Err(); err != nil {
				resultChan <- result{index: idx, err: err}
				return
			}
			val, err := processFn(ctx, idx, itm)
			resultChan <- result{index: idx, value: val, err: err}
		}(i, item)
	}

	var firstError error
	for range started {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = res.err
		}
		results[res.index] = res.value
	}
	if firstError == nil && started < len(items) {
		firstError = ctx.Err()
	}
	if firstError != nil {
		log.Error("Parallel processing stopped: %v", firstError)
		return nil, firstError
	}
	return results, nil
}
