// Package monitor serves a read-only snapshot of a harness.System whose
// scenario has completed over HTTP. Grounded on
// github.com/sarchlab/akita/v4/monitoring's Monitor, stripped down to the
// read-only state/trace endpoints this simulator needs: there is no
// pause/resume control surface here because a MOESI scenario runs to
// completion synchronously rather than ticking indefinitely.
package monitor

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"

	"github.com/sarchlab/moesi/harness"
	"github.com/sarchlab/moesi/tracing"
)

// Server serves a snapshot of a harness.System's non-Invalid cache lines,
// and the trace buffer if its sink is a *tracing.MemorySink. Memory
// contents are not served.
type Server struct {
	sys        *harness.System
	port       int
	httpServer *http.Server
}

// NewServer builds a Server for sys, listening on port (0 picks a random
// free port).
func NewServer(sys *harness.System, port int) *Server {
	return &Server{sys: sys, port: port}
}

type cacheLineView struct {
	Index int    `json:"index"`
	Addr  string `json:"addr"`
	Value string `json:"value"`
	State string `json:"state"`
}

type coreView struct {
	CoreID int             `json:"core_id"`
	Lines  []cacheLineView `json:"lines"`
}

func (s *Server) snapshotHandler(w http.ResponseWriter, _ *http.Request) {
	cores := make([]coreView, len(s.sys.Cores))

	for i, core := range s.sys.Cores {
		cache := core.Cache()

		var lines []cacheLineView

		for idx := 0; idx < cache.Size(); idx++ {
			line := cache.Line(idx)
			if !line.State.Valid() {
				continue
			}

			lines = append(lines, cacheLineView{
				Index: idx,
				Addr:  fmt.Sprintf("0x%x", line.Tag),
				Value: fmt.Sprintf("0x%x", line.Value),
				State: line.State.String(),
			})
		}

		cores[i] = coreView{CoreID: core.ID, Lines: lines}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(cores); err != nil {
		log.Printf("moesi monitor: snapshot encode failed: %v", err)
	}
}

func (s *Server) traceHandler(w http.ResponseWriter, _ *http.Request) {
	mem, ok := s.sys.Sink.(*tracing.MemorySink)

	w.Header().Set("Content-Type", "application/json")

	if !ok {
		_ = json.NewEncoder(w).Encode([]tracing.Event{})
		return
	}

	if err := json.NewEncoder(w).Encode(mem.Events()); err != nil {
		log.Printf("moesi monitor: trace encode failed: %v", err)
	}
}

// ListenAndServe starts the HTTP server and blocks until it stops. If
// open is true, it opens the /snapshot URL in the default browser once
// the listener is ready.
func (s *Server) ListenAndServe(open bool) error {
	router := mux.NewRouter()
	router.HandleFunc("/snapshot", s.snapshotHandler)
	router.HandleFunc("/trace", s.traceHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("moesi monitor: cannot listen: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	url := fmt.Sprintf("http://localhost:%d/snapshot", addr.Port)

	log.Printf("moesi monitor: serving at %s", url)

	if open {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("moesi monitor: could not open browser: %v", err)
		}
	}

	s.httpServer = &http.Server{Handler: router}

	return s.httpServer.Serve(listener)
}
