package engine

import (
	"fmt"
	"testing"
	"time"

	"ghostline/assert"
	"ghostline/types"
)

func record(id, path, text string, startedAt time.Time) *types.TrackingRecord {
	return &types.TrackingRecord{
		CompletionID: id,
		FilePath:     path,
		Text:         text,
		StartedAt:    startedAt,
	}
}

func TestMatchInsertion_ExactMatch(t *testing.T) {
	s := newTrackingStore()
	s.put(record("c1", "a.ts", "foo(bar)", time.Now()))

	rec := s.matchInsertion("a.ts", "foo(bar)")

	assert.NotNil(t, rec, "exact insertion matches")
	assert.Equal(t, "c1", rec.CompletionID, "matched record")
	assert.Equal(t, 0, s.len(), "matched record removed")

	assert.Nil(t, s.matchInsertion("a.ts", "foo(bar)"), "second identical insertion finds nothing")
}

func TestMatchInsertion_FilePathEqualityFirst(t *testing.T) {
	s := newTrackingStore()
	s.put(record("c1", "a.ts", "foo(bar)", time.Now()))

	assert.Nil(t, s.matchInsertion("b.ts", "foo(bar)"), "identical text on another file never matches")
	assert.Equal(t, 1, s.len(), "record untouched by the miss")
}

func TestMatchInsertion_PrefixEitherWay(t *testing.T) {
	s := newTrackingStore()
	s.put(record("c1", "a.ts", "foo(bar)", time.Now()))
	assert.NotNil(t, s.matchInsertion("a.ts", "foo(bar); baz()"), "completion text prefixing the insertion matches")

	s.put(record("c2", "a.ts", "foo(bar)", time.Now()))
	assert.NotNil(t, s.matchInsertion("a.ts", "foo("), "insertion prefixing the completion text matches")
}

func TestMatchInsertion_IgnoresTextlessRecords(t *testing.T) {
	s := newTrackingStore()
	s.put(record("c1", "a.ts", "", time.Now()))

	assert.Nil(t, s.matchInsertion("a.ts", "anything"), "in-flight records without text never match")
	assert.Nil(t, s.matchInsertion("a.ts", ""), "empty insertion never matches")
}

func TestSweep_RemovesStaleRecords(t *testing.T) {
	s := newTrackingStore()
	s.put(record("old", "a.ts", "x()", time.Now().Add(-trackingMaxAge-time.Minute)))
	s.put(record("fresh", "a.ts", "y()", time.Now()))

	removed := s.sweep()

	assert.Equal(t, 1, removed, "one stale record swept")
	assert.Nil(t, s.get("old"), "stale record gone")
	assert.NotNil(t, s.get("fresh"), "fresh record kept")
}

func TestPut_CapacityEvictsOldest(t *testing.T) {
	s := newTrackingStore()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < trackingMaxRecords; i++ {
		s.put(record(fmt.Sprintf("c%d", i), "a.ts", "x", base.Add(time.Duration(i)*time.Second)))
	}
	assert.Equal(t, trackingMaxRecords, s.len(), "store at capacity")

	s.put(record("newest", "a.ts", "x", time.Now()))

	assert.Equal(t, trackingMaxRecords, s.len(), "capacity holds")
	assert.Nil(t, s.get("c0"), "oldest record evicted")
	assert.NotNil(t, s.get("newest"), "new record stored")
}

func TestSetText(t *testing.T) {
	s := newTrackingStore()
	s.put(record("c1", "a.ts", "", time.Now()))

	s.setText("c1", "foo()")

	assert.Equal(t, "foo()", s.get("c1").Text, "text attached")

	s.setText("missing", "ignored") // no-op on unknown ids
}
