// Package provision runs an ordered list of recipe steps against a
// container and tears the container down when a step fails.
package provision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lxcforge/internal/container"
)

// Step is one provisioning action. Desc is user-facing progress text in
// the imperative present ("Creating filesystem").
type Step struct {
	Desc string
	Run  func(ctx context.Context) error
}

// Result summarizes a completed run.
type Result struct {
	Container string
	Steps     int
	Elapsed   time.Duration
}

// Engine executes steps sequentially, logging progress and handling
// failure teardown.
type Engine struct {
	log  *zap.Logger
	keep bool
}

// NewEngine builds an Engine. When keepOnFailure is set, a failed run
// leaves the container behind for inspection instead of destroying it.
func NewEngine(log *zap.Logger, keepOnFailure bool) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, keep: keepOnFailure}
}

// Run executes the steps in order, stopping at the first failure. On
// failure the container is stopped and destroyed unless the engine keeps
// failed containers; the step error is returned wrapped with the step
// description either way.
func (e *Engine) Run(ctx context.Context, c container.Container, steps []Step) (*Result, error) {
	start := time.Now()

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			e.teardown(c)
			return nil, fmt.Errorf("provisioning aborted before %q: %w", step.Desc, err)
		}

		e.log.Info(step.Desc,
			zap.String("container", c.Name()),
			zap.Int("step", i+1),
			zap.Int("steps", len(steps)))

		stepStart := time.Now()
		if err := step.Run(ctx); err != nil {
			e.log.Error("step failed",
				zap.String("container", c.Name()),
				zap.String("step", step.Desc),
				zap.Error(err))
			e.teardown(c)
			return nil, fmt.Errorf("%s: %w", step.Desc, err)
		}
		e.log.Debug("step finished",
			zap.String("step", step.Desc),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	return &Result{
		Container: c.Name(),
		Steps:     len(steps),
		Elapsed:   time.Since(start),
	}, nil
}

// teardown removes the partially provisioned container after a failure.
func (e *Engine) teardown(c container.Container) {
	if c == nil || !c.Defined() {
		return
	}
	if e.keep {
		e.log.Warn("keeping failed container", zap.String("container", c.Name()))
		return
	}
	if c.Running() {
		if err := c.Stop(); err != nil {
			e.log.Warn("failed to stop container during teardown",
				zap.String("container", c.Name()), zap.Error(err))
		}
	}
	if err := c.Destroy(); err != nil {
		e.log.Warn("failed to destroy container during teardown",
			zap.String("container", c.Name()), zap.Error(err))
	}
}
