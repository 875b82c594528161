package storage

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/convox/logger"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T) *Storage {
	s, err := NewStorage(filepath.Join(t.TempDir(), "db", "stats.db"), 0, logger.NewWriter("ns=test", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestParseTimeRange(t *testing.T) {
	for _, r := range []TimeRange{Range30Min, Range1Hour, Range6Hour, Range1Day, Range1Week} {
		parsed, err := ParseTimeRange(r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}

	r, err := ParseTimeRange("")
	require.NoError(t, err)
	require.Equal(t, Range30Min, r)

	_, err = ParseTimeRange("1year")
	require.Error(t, err)

	require.Equal(t, "unknown", TimeRange(9).String())
	require.Equal(t, 30*time.Minute, TimeRange(-1).Duration())
}

func TestWriteFlushQuery(t *testing.T) {
	s := testStorage(t)
	now := time.Now()

	s.Write(&StatsEntry{Container: "a", Timestamp: now.Add(-2 * time.Minute), CPUPercent: 10, MemoryPercent: 20})
	s.Write(&StatsEntry{Container: "a", Timestamp: now.Add(-1 * time.Minute), CPUPercent: 30, MemoryPercent: 40})
	s.Write(&StatsEntry{Container: "a", Timestamp: now.Add(-2 * time.Hour), CPUPercent: 99, MemoryPercent: 99})
	s.Write(&StatsEntry{Container: "b", Timestamp: now.Add(-1 * time.Minute), CPUPercent: 50, MemoryPercent: 50})
	s.Flush()

	points, err := s.Query("a", Range30Min)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, 10.0, points[0].CPUPercent)
	require.Equal(t, 40.0, points[1].MemoryPercent)

	none, err := s.Query("missing", Range30Min)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestQueryBucketed(t *testing.T) {
	s := testStorage(t)
	now := time.Unix(1_800_000_000, 0)

	// two samples inside one 30s bucket, one in the next
	s.Write(&StatsEntry{Container: "a", Timestamp: time.Unix(1_799_999_940, 0), CPUPercent: 10})
	s.Write(&StatsEntry{Container: "a", Timestamp: time.Unix(1_799_999_950, 0), CPUPercent: 30})
	s.Write(&StatsEntry{Container: "a", Timestamp: time.Unix(1_799_999_975, 0), CPUPercent: 60})
	s.Flush()

	points, err := s.queryAt("a", Range1Hour, now)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, 20.0, points[0].CPUPercent)
	require.Equal(t, 60.0, points[1].CPUPercent)
	require.Equal(t, int64(1_799_999_940), points[0].Timestamp.Unix())
}

func TestPrune(t *testing.T) {
	s := testStorage(t)
	now := time.Now()

	s.Write(&StatsEntry{Container: "a", Timestamp: now.Add(-8 * 24 * time.Hour)})
	s.Write(&StatsEntry{Container: "a", Timestamp: now.Add(-time.Minute)})
	s.Flush()

	require.Equal(t, int64(1), s.Prune(now.Add(-7*24*time.Hour)))

	points, err := s.Query("a", Range1Week)
	require.NoError(t, err)
	require.Len(t, points, 1)
}

func TestCloseIdempotentFlush(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "stats.db"), time.Hour, nil)
	require.NoError(t, err)

	s.Write(&StatsEntry{Container: "a", Timestamp: time.Now()})
	require.NoError(t, s.Close())

	// Flush after close must not block
	s.Flush()
}
