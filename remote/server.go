package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"go-step/debug"
	"go-step/sequencer"
)

// Sequencer is the slice of the runtime the HTTP surface drives.
type Sequencer interface {
	Snapshot() sequencer.Snapshot
	Transport(ev sequencer.TransportEvent)
	SelectPattern(i int)
	GridPress(row, col int, pressed bool)
	SelectorPress(button int, pressed bool)
	SetTempo(bpm int)
	SetClockSource(s sequencer.ClockSource)
	SetResetPolicy(p sequencer.ResetPolicy)
	Panic()
	Clear()
	ExportPatterns() ([]byte, error)
	ImportPatterns(blob []byte) error
}

// maxBody caps uploaded pattern blobs.
const maxBody = 1 << 20

type Server struct {
	seq    Sequencer
	router *mux.Router
}

func NewServer(seq Sequencer) *Server {
	s := &Server{seq: seq}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/state", s.handleState).Methods("GET")
	router.HandleFunc("/transport/{event}", s.handleTransport).Methods("POST")
	router.HandleFunc("/tempo/{bpm:[0-9]+}", s.handleTempo).Methods("POST")
	router.HandleFunc("/clock/{source}", s.handleClock).Methods("POST")
	router.HandleFunc("/reset/{policy}", s.handleReset).Methods("POST")
	router.HandleFunc("/panic", s.handlePanic).Methods("POST")
	router.HandleFunc("/grid/{row:[0-9]+}/{col:[0-9]+}", s.handleGrid).Methods("POST")
	router.HandleFunc("/selector/{button:[0-9]+}", s.handleSelector).Methods("POST")
	router.HandleFunc("/patterns/{index:[0-9]+}/select", s.handleSelectPattern).Methods("POST")
	router.HandleFunc("/patterns", s.handleExport).Methods("GET")
	router.HandleFunc("/patterns", s.handleImport).Methods("PUT")
	router.HandleFunc("/patterns", s.handleClear).Methods("DELETE")
	s.router = router

	return s
}

// Handler returns the router wrapped with CORS so browser control pages on
// other origins can reach it.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	debug.Log("remote", "listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "serve %s", addr)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.seq.Snapshot())
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	ev, ok := sequencer.ParseTransport(mux.Vars(r)["event"])
	if !ok {
		http.Error(w, "unknown transport event", http.StatusBadRequest)
		return
	}
	s.seq.Transport(ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTempo(w http.ResponseWriter, r *http.Request) {
	bpm, _ := strconv.Atoi(mux.Vars(r)["bpm"])
	s.seq.SetTempo(bpm)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	src, err := sequencer.ParseClockSource(mux.Vars(r)["source"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.seq.SetClockSource(src)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p, err := sequencer.ParseResetPolicy(mux.Vars(r)["policy"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.seq.SetResetPolicy(p)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request) {
	s.seq.Panic()
	w.WriteHeader(http.StatusAccepted)
}

// handleGrid is a full press: the release is implied.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, _ := strconv.Atoi(vars["row"])
	col, _ := strconv.Atoi(vars["col"])
	if row >= sequencer.Rows || col >= sequencer.Columns {
		http.Error(w, "cell out of range", http.StatusBadRequest)
		return
	}
	s.seq.GridPress(row, col, true)
	s.seq.GridPress(row, col, false)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSelector(w http.ResponseWriter, r *http.Request) {
	button, _ := strconv.Atoi(mux.Vars(r)["button"])
	if button >= sequencer.NumSelectors {
		http.Error(w, "selector out of range", http.StatusBadRequest)
		return
	}
	s.seq.SelectorPress(button, true)
	s.seq.SelectorPress(button, false)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSelectPattern(w http.ResponseWriter, r *http.Request) {
	i, _ := strconv.Atoi(mux.Vars(r)["index"])
	if i >= sequencer.NumPatterns {
		http.Error(w, "pattern out of range", http.StatusBadRequest)
		return
	}
	s.seq.SelectPattern(i)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := s.seq.ExportPatterns()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(blob)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "could not read body", http.StatusBadRequest)
		return
	}
	if err := s.seq.ImportPatterns(blob); err != nil {
		debug.Log("remote", "import rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.seq.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Log("remote", "encode response: %v", err)
	}
}
