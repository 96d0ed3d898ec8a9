package tracing

import (
	"fmt"
	"log"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVSink writes every event as one line of a CSV file, buffering before
// each flush. Grounded on
// github.com/sarchlab/akita/v4/tracing's CSVTraceWriter. Unlike the other
// sinks, CSVSink takes no lock of its own: Emit and Close are not safe to
// call concurrently with each other.
type CSVSink struct {
	file       *os.File
	events     []Event
	next       int
	bufferSize int
}

// NewCSVSink creates path+".csv" (or a generated name under
// "moesi_trace_<xid>.csv" if path is empty) and writes the header row.
func NewCSVSink(path string) *CSVSink {
	if path == "" {
		path = "moesi_trace_" + xid.New().String()
	}

	filename := path + ".csv"

	file, err := os.Create(filename)
	if err != nil {
		log.Fatalf("moesi: cannot create trace file %s: %v", filename, err)
	}

	fmt.Fprintf(file, "seq,op_id,core_id,kind,op,atomic_kind,addr,value,"+
		"bus_op,peer_id,from_state,to_state,from_memory,detail\n")

	s := &CSVSink{file: file, bufferSize: 1000}

	atexit.Register(func() {
		s.flush()

		if err := s.file.Close(); err != nil {
			log.Printf("moesi: trace file close failed: %v", err)
		}
	})

	return s
}

// Emit buffers ev, flushing once bufferSize events have accumulated.
func (s *CSVSink) Emit(ev Event) {
	s.next++
	ev.Seq = s.next
	s.events = append(s.events, ev)

	if len(s.events) >= s.bufferSize {
		s.flush()
	}
}

func (s *CSVSink) flush() {
	for _, ev := range s.events {
		fmt.Fprintf(s.file, "%d,%s,%d,%s,%s,%s,0x%x,0x%x,%s,%d,%s,%s,%t,%q\n",
			ev.Seq, ev.OpID, ev.CoreID, ev.Kind, ev.Op, ev.AtomicKind,
			ev.Addr, ev.Value, ev.BusOp, ev.PeerID, ev.FromState, ev.ToState,
			ev.FromMemory, ev.Detail,
		)
	}

	s.events = nil
}

// Close flushes and closes the file immediately.
func (s *CSVSink) Close() error {
	s.flush()
	return s.file.Close()
}
