package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ghostline/ctx"
	"ghostline/logger"
	"ghostline/metrics"
	"ghostline/provider"
	"ghostline/text"
	"ghostline/types"
)

const sweepInterval = time.Minute

// Config is the engine's behavioral configuration.
type Config struct {
	// Enabled gates all completion work; when false every trigger returns
	// absence immediately.
	Enabled bool

	// Coexist allows completions while a competing completion tool is
	// reported active.
	Coexist bool

	// Model selects which registered provider serves requests.
	Model string

	WorkspaceRoot string
	Budget        types.ContextBudget
}

// Engine orchestrates the request lifecycle: guards, tracking, context
// assembly, provider dispatch, post-dispatch accounting and telemetry.
// Requests are independent; the provider map and tracking store are the only
// shared state.
type Engine struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider
	config    Config

	// conflict reports whether a competing completion tool is active.
	// Nil means no conflict detection.
	conflict func() bool

	gatherer *ctx.Gatherer
	edits    *ctx.RecencyLog
	visits   *ctx.RecencyLog

	tracking *trackingStore
	stats    statCounters
	cache    *dedupCache
	tracker  *metrics.Tracker

	stopOnce  sync.Once
	sweepDone chan struct{}
}

// New creates an engine over the given provider registry. tracker may be nil
// to disable telemetry.
func New(config Config, providers map[string]provider.Provider, tracker *metrics.Tracker) (*Engine, error) {
	cache, err := newDedupCache()
	if err != nil {
		return nil, err
	}

	edits := ctx.NewRecencyLog(ctx.DefaultLogCapacity)
	visits := ctx.NewRecencyLog(ctx.DefaultLogCapacity)

	e := &Engine{
		providers: providers,
		config:    config,
		edits:     edits,
		visits:    visits,
		gatherer: ctx.NewGatherer(
			ctx.NewRecentEditsSource(edits),
			ctx.NewImportSource(),
			ctx.NewWorkspaceSource(),
			ctx.NewClipboardSource(),
			ctx.NewRecentVisitsSource(visits),
		),
		tracking:  newTrackingStore(),
		cache:     cache,
		tracker:   tracker,
		sweepDone: make(chan struct{}),
	}

	go e.sweepLoop()
	return e, nil
}

// SetConflictProbe installs the hook reporting whether a competing
// completion tool is active.
func (e *Engine) SetConflictProbe(probe func() bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conflict = probe
}

// Reconfigure swaps the active model and replaces the provider registry in
// one step. Readers never observe a partially rebuilt registry.
func (e *Engine) Reconfigure(model string, providers map[string]provider.Provider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config.Model = model
	e.providers = providers
	logger.Info("engine reconfigured, active model %q, %d providers", model, len(providers))
}

// Close stops the sweep loop and releases the dedup cache.
func (e *Engine) Close() {
	e.stopOnce.Do(func() {
		close(e.sweepDone)
		e.cache.close()
	})
}

// Complete runs one completion request end to end. It never returns an
// error: every internal failure is logged and surfaced as a nil result. A
// non-nil result carries the completion id to correlate a later acceptance.
func (e *Engine) Complete(reqCtx context.Context, req *types.CompletionRequest) (*types.CompletionResult, string) {
	e.mu.RLock()
	cfg := e.config
	prov := e.providers[cfg.Model]
	conflict := e.conflict
	e.mu.RUnlock()

	// Guard checks, no side effects
	if !cfg.Enabled {
		return nil, ""
	}
	if conflict != nil && conflict() && !cfg.Coexist {
		logger.Debug("completion skipped, competing tool active")
		return nil, ""
	}
	if looksLikeComment(req.Prefix, req.Language) {
		logger.Debug("completion skipped, cursor in comment")
		return nil, ""
	}
	if reqCtx.Err() != nil {
		return nil, ""
	}

	cacheKey := e.cache.key(req, cfg.Model)
	if cached, ok := e.cache.get(cacheKey); ok {
		return e.serveCached(req, cached)
	}

	completionID := uuid.NewString()
	startedAt := time.Now()
	rec := &types.TrackingRecord{
		CompletionID: completionID,
		ModelID:      cfg.Model,
		Provider:     providerName(prov),
		Language:     req.Language,
		FilePath:     req.FilePath,
		StartedAt:    startedAt,
	}
	e.tracking.put(rec)
	e.stats.totalRequests.Add(1)

	if prov == nil {
		logger.Warn("no provider registered for model %q", cfg.Model)
		e.tracking.remove(completionID)
		return nil, ""
	}
	if !prov.IsAvailable(reqCtx) {
		logger.Debug("provider %s unavailable", prov.DisplayName())
		e.tracking.remove(completionID)
		return nil, ""
	}

	dispatched := *req
	dispatched.Prefix = e.assemblePrefix(reqCtx, req, cfg)

	res, err := prov.GetCompletion(reqCtx, &dispatched)
	if err != nil {
		logger.Warn("provider %s error: %v", prov.DisplayName(), err)
		e.tracking.remove(completionID)
		return nil, ""
	}
	if res == nil || res.Text == "" {
		e.tracking.remove(completionID)
		return nil, ""
	}

	e.stats.successfulCompletions.Add(1)
	e.tracking.setText(completionID, res.Text)
	e.cache.put(cacheKey, res)

	if e.tracker != nil {
		e.tracker.TrackGenerated(&metrics.Event{
			CompletionID: completionID,
			Model:        res.ModelID,
			Provider:     res.Provider,
			Language:     req.Language,
			FilePath:     req.FilePath,
			LatencyMs:    time.Since(startedAt).Milliseconds(),
			LineCount:    strings.Count(res.Text, "\n") + 1,
			CharCount:    len(res.Text),
		})
	}

	logger.Debug("completion %s served by %s (%d chars)", completionID, res.Provider, len(res.Text))
	return res, completionID
}

// serveCached replays a recent identical request's result under a fresh
// completion id, so a later acceptance still correlates. No telemetry is
// re-emitted for the replay.
func (e *Engine) serveCached(req *types.CompletionRequest, res *types.CompletionResult) (*types.CompletionResult, string) {
	completionID := uuid.NewString()
	e.tracking.put(&types.TrackingRecord{
		CompletionID: completionID,
		ModelID:      res.ModelID,
		Provider:     res.Provider,
		Language:     req.Language,
		FilePath:     req.FilePath,
		StartedAt:    time.Now(),
		Text:         res.Text,
	})
	e.stats.totalRequests.Add(1)
	e.stats.successfulCompletions.Add(1)
	logger.Debug("completion served from dedup cache for %s", req.FilePath)
	return res, completionID
}

// ReportInsertion is the acceptance heuristic. It scans live records for the
// filepath whose completion text prefixes the inserted text or vice versa;
// the first match fires one acceptance event and removes the record. False
// negatives are tolerated silently.
func (e *Engine) ReportInsertion(filePath, inserted string) bool {
	rec := e.tracking.matchInsertion(filePath, inserted)
	if rec == nil {
		return false
	}

	e.stats.acceptedCompletions.Add(1)

	if e.tracker != nil {
		additions, deletions := text.LineChanges(rec.Text, inserted)
		e.tracker.TrackAccepted(&metrics.Event{
			CompletionID: rec.CompletionID,
			Model:        rec.ModelID,
			Provider:     rec.Provider,
			Language:     rec.Language,
			FilePath:     rec.FilePath,
			LineCount:    strings.Count(rec.Text, "\n") + 1,
			CharCount:    len(rec.Text),
			Additions:    additions,
			Deletions:    deletions,
		})
	}

	logger.Debug("completion %s accepted", rec.CompletionID)
	return true
}

// RecordEdit feeds the recently-edited log from the host editor.
func (e *Engine) RecordEdit(filePath string, startLine, endLine int, content string) {
	e.edits.Record(filePath, startLine, endLine, content)
}

// RecordVisit feeds the recently-visited log from the host editor.
func (e *Engine) RecordVisit(filePath string, startLine, endLine int, content string) {
	e.visits.Record(filePath, startLine, endLine, content)
}

// Stats returns a snapshot of the usage counters.
func (e *Engine) Stats() types.UsageStats { return e.stats.snapshot() }

// ResetStats zeroes the usage counters.
func (e *Engine) ResetStats() { e.stats.reset() }

// RestoreStats seeds the counters, used at startup from the persistent
// store.
func (e *Engine) RestoreStats(stats types.UsageStats) { e.stats.restore(stats) }

// TrackedCount reports the number of live tracking records.
func (e *Engine) TrackedCount() int { return e.tracking.len() }

// assemblePrefix runs the context pipeline and prepends the formatted block
// to the prefix. Any pipeline failure falls back to the unmodified prefix.
func (e *Engine) assemblePrefix(reqCtx context.Context, req *types.CompletionRequest, cfg Config) (prefix string) {
	prefix = req.Prefix
	defer func() {
		if r := recover(); r != nil {
			logger.Error("context pipeline panicked, using bare prefix: %v", r)
			prefix = req.Prefix
		}
	}()

	snippets := e.gatherer.Gather(reqCtx, &ctx.Request{
		FilePath:      req.FilePath,
		Language:      req.Language,
		Prefix:        req.Prefix,
		WorkspaceRoot: cfg.WorkspaceRoot,
		Budget:        cfg.Budget,
	})
	ranked := ctx.Rank(snippets, req.Prefix, req.FilePath, cfg.Budget)
	block := ctx.FormatBlock(ranked, req.FilePath, req.Language)
	if block == "" {
		return req.Prefix
	}
	return block + "\n" + req.Prefix
}

func (e *Engine) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.sweepDone:
			return
		case <-ticker.C:
			if removed := e.tracking.sweep(); removed > 0 {
				logger.Debug("swept %d stale tracking records", removed)
			}
		}
	}
}

// looksLikeComment checks the last prefix line against the language's own
// comment markers. A cheap heuristic, not a lexer: keying on the language
// keeps "#include" in C or a leading string literal in Python from reading
// as comments.
func looksLikeComment(prefix, language string) bool {
	idx := strings.LastIndexByte(prefix, '\n')
	line := strings.TrimSpace(prefix[idx+1:])
	for _, marker := range ctx.CommentMarkers(language) {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

func providerName(p provider.Provider) string {
	if p == nil {
		return ""
	}
	return p.DisplayName()
}
