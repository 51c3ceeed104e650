package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/key"
)

// fetchAuxiliary pulls the key's GitHub repositories, text files and binary
// files, in that order, each group through its own worker pool. Only the
// local write of each fetch takes the I/O lock.
func (s *build) fetchAuxiliary(ctx context.Context, m key.Metadata) error {
	debug.DebugSection("[app] Auxiliary fetches")

	var errs []error
	total := 0

	if n := len(m.GitHubRepos); n > 0 {
		s.out.Progress(fmt.Sprintf("Pulling %d GitHub %s. This may take a bit of time...", n, plural(n, "repository", "repositories")))
		errs = append(errs, s.runPool(ctx, s.fetchJobs(m.GitHubRepos, s.cfg.RepoTimeout(), s.fetcher.PullRepo))...)
		total += n
	}
	if n := len(m.TextFiles); n > 0 {
		s.out.Progress(fmt.Sprintf("Pulling %d text %s", n, plural(n, "file", "files")))
		errs = append(errs, s.runPool(ctx, s.fetchJobs(m.TextFiles, s.cfg.WorkerTimeout(), s.fetcher.DownloadText))...)
		total += n
	}
	if n := len(m.BinaryFiles); n > 0 {
		s.out.Progress(fmt.Sprintf("Pulling %d binary %s", n, plural(n, "file", "files")))
		errs = append(errs, s.runPool(ctx, s.fetchJobs(m.BinaryFiles, s.cfg.WorkerTimeout(), s.fetcher.DownloadBinary))...)
		total += n
	}

	if len(errs) > 0 {
		return incomplete("auxiliary fetches", total, errs)
	}
	return nil
}

type fetchFunc func(ctx context.Context, source, dest string, ioLock sync.Locker) error

func (s *build) fetchJobs(fetches []key.Fetch, timeout time.Duration, fetch fetchFunc) []job {
	jobs := make([]job, 0, len(fetches))
	for _, f := range fetches {
		jobs = append(jobs, job{
			name:    f.LocalPath,
			timeout: timeout,
			run: func(ctx context.Context) (string, error) {
				if err := fetch(ctx, f.Source, f.LocalPath, s.ioLock); err != nil {
					return "", err
				}
				return fmt.Sprintf("'%s' ...check!", f.LocalPath), nil
			},
		})
	}
	return jobs
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
