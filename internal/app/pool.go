package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
)

// job is one unit of a worker pool. run returns the success line to report.
type job struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) (string, error)
}

// runPool runs every job concurrently, bounded by workers.max_concurrent,
// and returns the failures in job order. A failing job never cancels its
// siblings; each one reports its own outcome through the output lock.
func (s *build) runPool(ctx context.Context, jobs []job) []error {
	results := make([]error, len(jobs))

	limit := s.cfg.Workers.MaxConcurrent
	if limit <= 0 {
		limit = len(jobs)
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = s.runWorker(ctx, j)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, err := range results {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// runWorker runs j with its timeout. A worker that overruns is abandoned:
// its context is cancelled but it is not waited for.
func (s *build) runWorker(parent context.Context, j job) error {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	type result struct {
		msg string
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: errors.Newf(errors.ErrUnknown, "%s: worker panic: %v", j.name, r)}
			}
		}()
		msg, err := j.run(ctx)
		done <- result{msg: msg, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		select {
		case res = <-done:
		default:
			debug.Debug("[app] worker %s abandoned: %v", j.name, ctx.Err())
			res.err = errors.Newf(errors.ErrWorkerTimeout, "%s: no result after %s", j.name, j.timeout).
				WithDetail("item", j.name)
			if stderrors.Is(parent.Err(), context.Canceled) {
				res.err = errors.Wrapf(parent.Err(), errors.ErrWorkerTimeout, "%s: cancelled", j.name)
			}
		}
	}

	if res.err != nil {
		s.out.Failure(res.err)
		return res.err
	}
	s.out.Success(res.msg)
	return nil
}

// incomplete aggregates worker failures into one BUILD_INCOMPLETE error.
func incomplete(what string, total int, errs []error) error {
	return errors.Wrap(joinErrors(errs), errors.ErrBuildIncomplete,
		fmt.Sprintf("%d of %d %s failed", len(errs), total, what)).
		WithDetail("failed", len(errs)).
		WithDetail("total", total)
}

func joinErrors(errs []error) error {
	return stderrors.Join(errs...)
}
