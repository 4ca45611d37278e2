package apify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/resilience"
)

const (
	defaultPollInitial = 2 * time.Second
	defaultPollCap     = 10 * time.Second
	defaultPollTimeout = 4 * time.Minute
)

// PollOption configures polling behavior.
type PollOption func(*pollConfig)

type pollConfig struct {
	initial time.Duration
	cap     time.Duration
	timeout time.Duration
}

// WithPollInterval overrides the initial poll interval.
func WithPollInterval(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.initial = d
		}
	}
}

// WithPollCap overrides the maximum poll interval.
func WithPollCap(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.cap = d
		}
	}
}

// WithPollTimeout overrides the timeout applied when the parent context has
// no deadline.
func WithPollTimeout(d time.Duration) PollOption {
	return func(c *pollConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WaitForRun polls GetRun until the run reaches a terminal status or the
// context expires. The interval doubles from the initial value up to the cap.
// A run that ends in any status other than SUCCEEDED is an error.
func WaitForRun(ctx context.Context, client Client, runID string, opts ...PollOption) (*Run, error) {
	cfg := pollConfig{initial: defaultPollInitial, cap: defaultPollCap, timeout: defaultPollTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	interval := cfg.initial
	for {
		run, err := client.GetRun(ctx, runID)
		switch {
		case err != nil && ctx.Err() == nil && resilience.IsTransient(err):
			// A status read; the run itself keeps going.
		case err != nil:
			return nil, eris.Wrapf(err, "apify: poll run %s", runID)
		case run.Terminal():
			if run.Status != StatusSucceeded {
				return run, eris.Errorf("apify: run %s ended with status %s", runID, run.Status)
			}
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, eris.Wrapf(ctx.Err(), "apify: poll run %s timed out", runID)
		case <-time.After(interval):
		}

		interval *= 2
		if interval > cfg.cap {
			interval = cfg.cap
		}
	}
}

// RunActor starts an actor, waits for it to succeed, and returns the items of
// its default dataset. An empty slice means the run succeeded with no output.
func RunActor(ctx context.Context, client Client, actorID string, input any, opts ...PollOption) ([]json.RawMessage, error) {
	run, err := client.StartRun(ctx, actorID, input)
	if err != nil {
		return nil, err
	}

	if !run.Terminal() {
		run, err = WaitForRun(ctx, client, run.ID, opts...)
		if err != nil {
			return nil, err
		}
	} else if run.Status != StatusSucceeded {
		return nil, eris.Errorf("apify: run %s ended with status %s", run.ID, run.Status)
	}

	if run.DefaultDatasetID == "" {
		return nil, eris.Errorf("apify: run %s has no dataset", run.ID)
	}

	items, err := client.DatasetItems(ctx, run.DefaultDatasetID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}
