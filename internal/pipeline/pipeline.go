// Package pipeline fans the tracker out over characters. Characters are
// independent, so the pool shares nothing but the cache. Cancellation is
// cooperative and only checked between characters: an in-flight character
// always finishes.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"speech_tracker/internal/speech"
)

// Result is one character's outcome. A failed character carries its error
// here instead of aborting the batch.
type Result struct {
	Character string
	Alerts    []speech.Alert
	Err       error
}

// Run processes every speaker on a bounded worker pool and returns results
// in input order. Only context cancellation is returned as an error;
// per-character failures are isolated into their Result.
func Run(ctx context.Context, tracker *speech.Tracker, speakers []speech.Speaker, narrative map[int]string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}

	results := make([]Result, len(speakers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sp := range speakers {
		if err := gctx.Err(); err != nil {
			break
		}
		i, sp := i, sp
		g.Go(func() error {
			results[i] = runOne(tracker, sp, narrative)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("analysis cancelled: %w", err)
	}
	return results, nil
}

func runOne(tracker *speech.Tracker, sp speech.Speaker, narrative map[int]string) (res Result) {
	res.Character = sp.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("character %s: panic: %v", sp.Name, r)
		}
	}()
	alerts, err := tracker.DetectChanges(sp, narrative)
	if err != nil {
		res.Err = fmt.Errorf("character %s: %w", sp.Name, err)
		return res
	}
	res.Alerts = alerts
	return res
}
