package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/convox/logger"
	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/model"
	_ "modernc.org/sqlite"
)

const (
	DefaultRetention = 7 * 24 * time.Hour

	queueSize     = 1000
	batchSize     = 50
	flushEvery    = 5 * time.Second
	sweepEvery    = time.Hour
	pruneBatch    = 1000
	pruneInterval = 100 * time.Millisecond
)

// TimeRange selects how far back a history query reaches and how coarsely
// samples are averaged.
type TimeRange int

const (
	Range30Min TimeRange = iota
	Range1Hour
	Range6Hour
	Range1Day
	Range1Week
)

type rangeSpec struct {
	name   string
	span   time.Duration
	bucket int64 // seconds; 0 keeps every sample
}

var ranges = [...]rangeSpec{
	Range30Min: {"30min", 30 * time.Minute, 0},
	Range1Hour: {"1hour", time.Hour, 30},
	Range6Hour: {"6hours", 6 * time.Hour, 300},
	Range1Day:  {"1day", 24 * time.Hour, 600},
	Range1Week: {"1week", 7 * 24 * time.Hour, 3600},
}

func (t TimeRange) spec() rangeSpec {
	if t < 0 || int(t) >= len(ranges) {
		return rangeSpec{"unknown", ranges[Range30Min].span, 0}
	}
	return ranges[t]
}

func (t TimeRange) String() string { return t.spec().name }

func (t TimeRange) Duration() time.Duration { return t.spec().span }

// ParseTimeRange accepts the names produced by String. Empty means 30min.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return Range30Min, nil
	}
	for i, r := range ranges {
		if r.name == s {
			return TimeRange(i), nil
		}
	}
	return Range30Min, errors.Errorf("unknown range: %q", s)
}

// StatsEntry is one recorded sample of a container.
type StatsEntry struct {
	Container     string
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	MemoryUsage   uint64
	MemoryLimit   uint64
	NetworkRx     uint64
	NetworkTx     uint64
}

// Storage keeps container samples in sqlite. Writes are queued and committed
// in batches by a background goroutine; a second goroutine drops samples
// older than the retention window.
type Storage struct {
	db        *sql.DB
	retention time.Duration
	log       *logger.Logger

	queue chan *StatsEntry
	flush chan chan struct{}
	done  chan struct{}

	wg   sync.WaitGroup
	once sync.Once
}

func NewStorage(path string, retention time.Duration, log *logger.Logger) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "history dir")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	if retention <= 0 {
		retention = DefaultRetention
	}

	s := &Storage{
		db:        db,
		retention: retention,
		log:       log,
		queue:     make(chan *StatsEntry, queueSize),
		flush:     make(chan chan struct{}),
		done:      make(chan struct{}),
	}

	s.wg.Add(2)
	go s.writer()
	go s.sweeper()

	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS container_stats (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	container      TEXT NOT NULL,
	timestamp      INTEGER NOT NULL,
	cpu_percent    REAL,
	memory_percent REAL,
	memory_usage   INTEGER,
	memory_limit   INTEGER,
	network_rx     INTEGER,
	network_tx     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_container_stats_name_ts
	ON container_stats(container, timestamp);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Write queues entry. When the queue is full the sample is dropped so the
// poll loop never waits on disk.
func (s *Storage) Write(entry *StatsEntry) {
	select {
	case s.queue <- entry:
	default:
	}
}

// Flush blocks until every queued entry is committed. It returns at once
// after Close.
func (s *Storage) Flush() {
	ack := make(chan struct{})
	select {
	case s.flush <- ack:
		<-ack
	case <-s.done:
	}
}

func (s *Storage) writer() {
	defer s.wg.Done()

	pending := make([]*StatsEntry, 0, 2*batchSize)

	commit := func(drain bool) {
		for drain {
			select {
			case e := <-s.queue:
				pending = append(pending, e)
			default:
				drain = false
			}
		}
		if len(pending) == 0 {
			return
		}
		if err := s.insert(pending); err != nil {
			s.logError(err)
		}
		pending = pending[:0]
	}

	tick := time.NewTicker(flushEvery)
	defer tick.Stop()

	for {
		select {
		case e := <-s.queue:
			pending = append(pending, e)
			if len(pending) >= batchSize {
				commit(false)
			}
		case <-tick.C:
			commit(false)
		case ack := <-s.flush:
			commit(true)
			close(ack)
		case <-s.done:
			commit(true)
			return
		}
	}
}

func (s *Storage) insert(entries []*StatsEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO container_stats
		(container, timestamp, cpu_percent, memory_percent, memory_usage, memory_limit, network_rx, network_tx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(e.Container, e.Timestamp.Unix(), e.CPUPercent, e.MemoryPercent,
			int64(e.MemoryUsage), int64(e.MemoryLimit), int64(e.NetworkRx), int64(e.NetworkTx))
		if err != nil {
			s.logError(errors.Wrapf(err, "insert %s", e.Container))
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// Query returns the samples of container inside r, oldest first, averaged
// into the range's bucket width.
func (s *Storage) Query(container string, r TimeRange) ([]model.HistoryPoint, error) {
	return s.queryAt(container, r, time.Now())
}

func (s *Storage) queryAt(container string, r TimeRange, now time.Time) ([]model.HistoryPoint, error) {
	spec := r.spec()
	cutoff := now.Add(-spec.span).Unix()

	var (
		rows *sql.Rows
		err  error
	)

	if spec.bucket == 0 {
		rows, err = s.db.Query(`SELECT timestamp, cpu_percent, memory_percent
			FROM container_stats
			WHERE container = ? AND timestamp > ?
			ORDER BY timestamp`, container, cutoff)
	} else {
		rows, err = s.db.Query(`SELECT (timestamp / ?) * ? AS bucket, AVG(cpu_percent), AVG(memory_percent)
			FROM container_stats
			WHERE container = ? AND timestamp > ?
			GROUP BY bucket
			ORDER BY bucket`, spec.bucket, spec.bucket, container, cutoff)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", container)
	}
	defer rows.Close()

	points := []model.HistoryPoint{}

	for rows.Next() {
		var (
			ts       int64
			cpu, mem sql.NullFloat64
		)
		if err := rows.Scan(&ts, &cpu, &mem); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		points = append(points, model.HistoryPoint{
			Timestamp:     time.Unix(ts, 0).UTC(),
			CPUPercent:    cpu.Float64,
			MemoryPercent: mem.Float64,
		})
	}

	return points, rows.Err()
}

func (s *Storage) sweeper() {
	defer s.wg.Done()

	tick := time.NewTicker(sweepEvery)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			if n := s.Prune(time.Now().Add(-s.retention)); n > 0 && s.log != nil {
				s.log.At("prune").Logf("rows=%d", n)
			}
		case <-s.done:
			return
		}
	}
}

// Prune deletes samples older than cutoff in small batches so a large sweep
// does not hold the write lock for long. It returns the number of rows
// removed.
func (s *Storage) Prune(cutoff time.Time) int64 {
	var total int64

	for {
		res, err := s.db.Exec(`DELETE FROM container_stats WHERE id IN (
			SELECT id FROM container_stats WHERE timestamp < ? LIMIT ?)`, cutoff.Unix(), pruneBatch)
		if err != nil {
			s.logError(errors.Wrap(err, "prune"))
			return total
		}

		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return total
		}
		total += n

		if n < pruneBatch {
			return total
		}

		time.Sleep(pruneInterval)
	}
}

// Close stops the background goroutines after committing queued samples.
func (s *Storage) Close() error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
	return s.db.Close()
}

func (s *Storage) logError(err error) {
	if s.log != nil {
		s.log.At("storage").Error(err)
	}
}
