package tracing

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// JSONSink writes every event as one element of a JSON array to a file,
// closing the array at process exit. Grounded on
// github.com/sarchlab/akita/v4/tracing's JSONTracer.
type JSONSink struct {
	w         io.WriteCloser
	mu        sync.Mutex
	next      int
	firstLine bool
}

// NewJSONSink creates a new file named "<xid>.moesi.json" in the current
// directory and returns a sink that appends to it.
func NewJSONSink() *JSONSink {
	filename := xid.New().String() + ".moesi.json"

	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("moesi: cannot create trace file: %v", err)
	}

	log.Printf("moesi: recording trace in %s", filename)

	if _, err := f.Write([]byte("[\n")); err != nil {
		log.Fatalf("moesi: cannot write trace header: %v", err)
	}

	s := &JSONSink{w: f, firstLine: true}

	atexit.Register(s.finish)

	return s
}

// Emit appends ev to the JSON array.
func (s *JSONSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	ev.Seq = s.next

	if s.firstLine {
		s.firstLine = false
	} else if _, err := s.w.Write([]byte(",\n")); err != nil {
		log.Printf("moesi: trace write failed: %v", err)
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("moesi: trace marshal failed: %v", err)
		return
	}

	if _, err := s.w.Write(b); err != nil {
		log.Printf("moesi: trace write failed: %v", err)
	}
}

func (s *JSONSink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write([]byte("\n]\n")); err != nil {
		fmt.Fprintf(os.Stderr, "moesi: trace finalize failed: %v\n", err)
	}

	_ = s.w.Close()
}

// Close finalizes and closes the underlying file immediately, instead of
// waiting for process exit. It always returns nil. If the atexit hook
// also runs afterwards, its second finalize fails on the closed file and
// reports that failure on stderr.
func (s *JSONSink) Close() error {
	s.finish()
	return nil
}
