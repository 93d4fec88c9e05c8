package ctx

import (
	"context"
	"sync"
	"time"

	"ghostline/logger"
	"ghostline/types"
)

// GatherTimeout is the default budget shared by all context sources. It is
// independent of the provider's network budget.
const GatherTimeout = 500 * time.Millisecond

// Request carries the trigger snapshot the sources work from.
type Request struct {
	FilePath      string
	Language      string
	Prefix        string
	WorkspaceRoot string
	Budget        types.ContextBudget
}

// Source produces candidate snippets of one kind. Implementations must be
// safe to call concurrently and should return early when ctx is done.
type Source interface {
	Kind() types.SourceKind
	Gather(ctx context.Context, req *Request) []types.CodeSnippet
}

// Gatherer runs context sources in parallel under a shared timeout. A source
// that fails, panics, or returns nothing never affects the others.
type Gatherer struct {
	sources []Source
	timeout time.Duration
}

// NewGatherer creates a Gatherer over the given sources.
func NewGatherer(sources ...Source) *Gatherer {
	return &Gatherer{sources: sources, timeout: GatherTimeout}
}

// Gather collects snippets from every enabled source. The result order is
// deterministic: sources in registration order, each source's snippets in
// yield order.
func (g *Gatherer) Gather(ctx context.Context, req *Request) []types.CodeSnippet {
	defer logger.Trace("ctx.Gather")()

	if len(g.sources) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results := make([][]types.CodeSnippet, len(g.sources))
	var wg sync.WaitGroup

	for i, s := range g.sources {
		if !req.Budget.SourceEnabled(s.Kind()) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("context source %s panicked: %v", s.Kind(), r)
				}
			}()
			results[i] = s.Gather(ctx, req)
		}()
	}

	wg.Wait()

	var merged []types.CodeSnippet
	for _, snippets := range results {
		merged = append(merged, snippets...)
	}
	return merged
}
