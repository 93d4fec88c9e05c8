package ctx

import (
	"context"
	"fmt"
	"testing"

	"ghostline/assert"
	"ghostline/types"
)

func TestRecencyLog_NewestFirst(t *testing.T) {
	log := NewRecencyLog(8)
	log.Record("a.go", 1, 5, "first")
	log.Record("b.go", 10, 12, "second")

	entries := log.Snapshot()

	assert.Len(t, 2, entries, "both entries kept")
	assert.Equal(t, "second", entries[0].Content, "newest entry first")
	assert.Equal(t, "first", entries[1].Content, "older entry second")
}

func TestRecencyLog_SameRangeReplaced(t *testing.T) {
	log := NewRecencyLog(8)
	log.Record("a.go", 1, 5, "stale")
	log.Record("a.go", 1, 5, "fresh")

	entries := log.Snapshot()

	assert.Len(t, 1, entries, "same file and range collapses to one entry")
	assert.Equal(t, "fresh", entries[0].Content, "latest content wins")
}

func TestRecencyLog_CapacityEviction(t *testing.T) {
	log := NewRecencyLog(3)
	for i := 0; i < 5; i++ {
		log.Record(fmt.Sprintf("f%d.go", i), 1, 1, fmt.Sprintf("edit %d", i))
	}

	entries := log.Snapshot()

	assert.Len(t, 3, entries, "capacity enforced")
	assert.Equal(t, "edit 4", entries[0].Content, "newest survives")
	assert.Equal(t, "edit 2", entries[2].Content, "oldest within capacity survives")
}

func TestRecencySource_Kinds(t *testing.T) {
	log := NewRecencyLog(8)
	log.Record("a.go", 1, 3, "content")

	edits := NewRecentEditsSource(log)
	visits := NewRecentVisitsSource(log)

	assert.Equal(t, types.SourceRecentlyEdited, edits.Kind(), "edits kind")
	assert.Equal(t, types.SourceRecentlyVisited, visits.Kind(), "visits kind")

	snippets := edits.Gather(context.Background(), &Request{})
	assert.Len(t, 1, snippets, "one snippet per entry")
	assert.Equal(t, types.SourceRecentlyEdited, snippets[0].Source, "snippet tagged with source kind")
	assert.NotNil(t, snippets[0].Range, "line range carried through")
	assert.Equal(t, 1, snippets[0].Range.Start, "start line")
}

func TestGatherer_DisabledSource(t *testing.T) {
	log := NewRecencyLog(8)
	log.Record("a.go", 1, 1, "content")

	g := NewGatherer(NewRecentEditsSource(log))
	budget := types.ContextBudget{
		EnabledSources: map[types.SourceKind]bool{types.SourceRecentlyEdited: false},
	}

	out := g.Gather(context.Background(), &Request{Budget: budget})

	assert.Len(t, 0, out, "disabled source contributes nothing")
}

func TestGatherer_PanickingSourceIsolated(t *testing.T) {
	log := NewRecencyLog(8)
	log.Record("a.go", 1, 1, "content")

	g := NewGatherer(panickySource{}, NewRecentEditsSource(log))

	out := g.Gather(context.Background(), &Request{})

	assert.Len(t, 1, out, "healthy source unaffected by a panicking one")
}

type panickySource struct{}

func (panickySource) Kind() types.SourceKind { return types.SourceWorkspace }
func (panickySource) Gather(context.Context, *Request) []types.CodeSnippet {
	panic("boom")
}
