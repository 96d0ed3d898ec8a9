package tracing

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"

	// Registers the "sqlite3" driver used below.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteSink appends every event as a row in a SQLite database, batching
// writes in a transaction. Grounded on
// github.com/sarchlab/akita/v4/tracing's SQLiteTraceWriter, simplified to
// a single events table since this module has no task-tree/dependency
// structure to persist alongside it.
type SQLiteSink struct {
	db        *sql.DB
	insert    *sql.Stmt
	mu        sync.Mutex
	next      int
	pending   []Event
	batchSize int
}

// NewSQLiteSink opens (creating if necessary) a SQLite database at path
// and prepares the events table. path may be ":memory:" for a
// process-local, throwaway trace.
func NewSQLiteSink(path string) *SQLiteSink {
	if path == "" {
		path = xid.New().String() + ".moesi.sqlite"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Fatalf("moesi: cannot open trace database %s: %v", path, err)
	}

	const createTable = `
CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY,
	op_id TEXT,
	core_id INTEGER,
	kind TEXT,
	op TEXT,
	atomic_kind TEXT,
	addr INTEGER,
	value INTEGER,
	bus_op TEXT,
	peer_id INTEGER,
	from_state TEXT,
	to_state TEXT,
	from_memory INTEGER,
	detail TEXT
)`

	if _, err := db.Exec(createTable); err != nil {
		log.Fatalf("moesi: cannot create trace table: %v", err)
	}

	const insertRow = `
INSERT INTO events (
	seq, op_id, core_id, kind, op, atomic_kind, addr, value,
	bus_op, peer_id, from_state, to_state, from_memory, detail
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := db.Prepare(insertRow)
	if err != nil {
		log.Fatalf("moesi: cannot prepare trace insert: %v", err)
	}

	s := &SQLiteSink{db: db, insert: stmt, batchSize: 256}

	atexit.Register(func() { _ = s.Close() })

	return s
}

// Emit buffers ev, flushing in a transaction once batchSize events have
// accumulated.
func (s *SQLiteSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	ev.Seq = s.next
	s.pending = append(s.pending, ev)

	if len(s.pending) >= s.batchSize {
		s.flushLocked()
	}
}

func (s *SQLiteSink) flushLocked() {
	if len(s.pending) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("moesi: trace transaction failed: %v", err)
		return
	}

	stmt := tx.Stmt(s.insert)

	for _, ev := range s.pending {
		detail := ev.Detail
		if detail == "" {
			if b, err := json.Marshal(ev); err == nil {
				detail = string(b)
			}
		}

		_, err := stmt.Exec(
			ev.Seq, ev.OpID, ev.CoreID, string(ev.Kind), ev.Op, ev.AtomicKind,
			ev.Addr, ev.Value, ev.BusOp, ev.PeerID, ev.FromState, ev.ToState,
			ev.FromMemory, detail,
		)
		if err != nil {
			log.Printf("moesi: trace insert failed: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("moesi: trace commit failed: %v", err)
	}

	s.pending = s.pending[:0]
}

// Close flushes any buffered events and closes the database handle.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()

	return s.db.Close()
}
