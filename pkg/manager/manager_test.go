package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitewatch/pkg/domain"
	"sitewatch/pkg/logger"
)

type recordingProcessor struct {
	mu      sync.Mutex
	order   []string
	active  int32
	maxSeen int32
	delay   time.Duration
	onCall  func(src domain.Source)
}

func (p *recordingProcessor) ProcessSource(ctx context.Context, src domain.Source) domain.SourceResult {
	n := atomic.AddInt32(&p.active, 1)
	for {
		seen := atomic.LoadInt32(&p.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&p.maxSeen, seen, n) {
			break
		}
	}
	defer atomic.AddInt32(&p.active, -1)

	if p.onCall != nil {
		p.onCall(src)
	}
	time.Sleep(p.delay)

	p.mu.Lock()
	p.order = append(p.order, src.Name)
	p.mu.Unlock()

	return domain.SourceResult{Status: domain.StatusNoChange}
}

func sources(names ...string) []domain.Source {
	out := make([]domain.Source, len(names))
	for i, n := range names {
		out[i] = domain.Source{Name: n, Kind: domain.SitemapSource, URL: "https://" + n}
	}
	return out
}

func TestProcessSources_SingleWorkerIsSequential(t *testing.T) {
	p := &recordingProcessor{delay: time.Millisecond}
	m := NewManager(1, p, logger.NewNoOp())

	results := m.ProcessSources(context.Background(), sources("a", "b", "c", "d"))

	assert.Equal(t, []string{"a", "b", "c", "d"}, p.order)
	assert.Equal(t, int32(1), p.maxSeen)
	require.Len(t, results, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, name, results[i].Source.Name)
		assert.Equal(t, domain.StatusNoChange, results[i].Status)
	}
}

func TestProcessSources_ResultsKeepInputOrder(t *testing.T) {
	p := &recordingProcessor{delay: 5 * time.Millisecond}
	m := NewManager(4, p, logger.NewNoOp())

	results := m.ProcessSources(context.Background(), sources("a", "b", "c", "d", "e"))

	require.Len(t, results, 5)
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, name, results[i].Source.Name)
	}
	assert.Len(t, p.order, 5)
}

func TestProcessSources_CancelStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &recordingProcessor{onCall: func(src domain.Source) {
		if src.Name == "b" {
			cancel()
		}
	}}
	m := NewManager(1, p, logger.NewNoOp())

	results := m.ProcessSources(ctx, sources("a", "b", "c", "d"))

	assert.Equal(t, []string{"a", "b"}, p.order)
	assert.Equal(t, domain.StatusSkipped, results[2].Status)
	assert.ErrorIs(t, results[3].Err, context.Canceled)
}

func TestProcessSources_Empty(t *testing.T) {
	m := NewManager(0, &recordingProcessor{}, logger.NewNoOp())
	assert.Empty(t, m.ProcessSources(context.Background(), nil))
}
