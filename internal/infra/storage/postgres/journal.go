package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/solgate/internal/infra/rpc/queue"
)

// journalEntry mirrors one dispatch_log row.
type journalEntry struct {
	ID        string    `db:"id"`
	Method    string    `db:"method"`
	Priority  string    `db:"priority"`
	Endpoint  string    `db:"endpoint"`
	Status    string    `db:"status"`
	LatencyMS int64     `db:"latency_ms"`
	Error     *string   `db:"error"`
	CreatedAt time.Time `db:"created_at"`
}

// Journal writes completed dispatches to dispatch_log for offline
// analysis. Writes are buffered and best-effort: a full buffer drops
// records instead of blocking the dispatch path.
type Journal struct {
	db      *DB
	log     *slog.Logger
	entries chan journalEntry
	done    chan struct{}
}

// NewJournal starts the background writer.
func NewJournal(db *DB, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	j := &Journal{
		db:      db,
		log:     log,
		entries: make(chan journalEntry, 256),
		done:    make(chan struct{}),
	}
	go j.writer()
	return j
}

// Record converts a queue completion record into a journal entry.
// Implements queue.Observer; must not block.
func (j *Journal) Record(rec queue.Record) {
	entry := journalEntry{
		ID:        rec.ID,
		Method:    rec.Name,
		Priority:  rec.Priority.String(),
		Endpoint:  rec.Endpoint,
		Status:    "succeeded",
		LatencyMS: rec.Latency.Milliseconds(),
		CreatedAt: rec.At,
	}
	if rec.Err != nil {
		entry.Status = "failed"
		msg := rec.Err.Error()
		entry.Error = &msg
	}

	select {
	case j.entries <- entry:
	default:
		j.log.Debug("journal buffer full, dropping record", "id", rec.ID)
	}
}

// Close stops accepting records and drains the buffer.
func (j *Journal) Close() {
	close(j.entries)
	<-j.done
}

func (j *Journal) writer() {
	defer close(j.done)

	const insert = `
		INSERT INTO dispatch_log (id, method, priority, endpoint, status, latency_ms, error, created_at)
		VALUES (:id, :method, :priority, :endpoint, :status, :latency_ms, :error, :created_at)`

	for entry := range j.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := j.db.NamedExecContext(ctx, insert, entry); err != nil {
			j.log.Warn("journal insert failed", "id", entry.ID, "error", err)
		}
		cancel()
	}
}
