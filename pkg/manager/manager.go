package manager

import (
	"context"
	"sync"
	"time"

	"sitewatch/pkg/domain"
	"sitewatch/pkg/logger"
)

// SourceProcessor runs the detection pipeline for a single source
type SourceProcessor interface {
	ProcessSource(ctx context.Context, src domain.Source) domain.SourceResult
}

// Manager manages workers and distributes sources to them
type Manager struct {
	workerCount int
	processor   SourceProcessor
	logger      logger.Interface
}

// NewManager creates a new manager. Fewer than one worker means one.
func NewManager(workerCount int, processor SourceProcessor, log logger.Interface) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager{
		workerCount: workerCount,
		processor:   processor,
		logger:      log,
	}
}

type job struct {
	index  int
	source domain.Source
}

// ProcessSources hands every source to the workers and returns one result per
// source, in input order. With a single worker sources run strictly in order.
// Once ctx is cancelled the remaining sources are reported as skipped.
func (m *Manager) ProcessSources(ctx context.Context, sources []domain.Source) []domain.SourceResult {
	results := make([]domain.SourceResult, len(sources))

	jobChan := make(chan job, len(sources))
	for i, src := range sources {
		jobChan <- job{index: i, source: src}
	}
	close(jobChan)

	workers := m.workerCount
	if workers > len(sources) {
		workers = len(sources)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for j := range jobChan {
				if err := ctx.Err(); err != nil {
					results[j.index] = domain.SourceResult{Source: j.source, Status: domain.StatusSkipped, Err: err}
					continue
				}

				start := time.Now()
				res := m.processor.ProcessSource(ctx, j.source)
				res.Source = j.source
				res.Duration = time.Since(start)
				results[j.index] = res

				m.logger.Debug("Source processed",
					"worker", workerID,
					"source", j.source.Name,
					"status", string(res.Status),
					"duration", res.Duration)
			}
		}(i)
	}

	wg.Wait()

	var failed int
	for _, r := range results {
		if r.Status == domain.StatusFailed {
			failed++
		}
	}
	m.logger.Info("Sources processed", "total", len(sources), "failed", failed)

	return results
}
