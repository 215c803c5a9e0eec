package report

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/banshee-data/prim/internal/httputil"
)

// BoxSource supplies the boxes a Handler serves.
type BoxSource interface {
	Boxes() ([]Box, error)
}

// Snapshot is a BoxSource holding a fixed set of boxes. Safe for concurrent use.
type Snapshot struct {
	mu    sync.RWMutex
	boxes []Box
}

// Set replaces the served boxes.
func (s *Snapshot) Set(boxes []Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = append([]Box(nil), boxes...)
}

// Boxes returns the current boxes.
func (s *Snapshot) Boxes() ([]Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Box(nil), s.boxes...), nil
}

// BoxSummary is the JSON listing entry for a box.
type BoxSummary struct {
	Index      int  `json:"index"`
	Steps      int  `json:"steps"`
	Degenerate bool `json:"degenerate"`
	Final      Step `json:"final"`
}

// Handler serves boxes as JSON and HTML charts:
//
//	GET /boxes              summaries
//	GET /boxes/{i}          full trajectory
//	GET /boxes/{i}/chart    go-echarts trajectory chart
type Handler struct {
	src BoxSource
	mux *http.ServeMux
}

// NewHandler creates a Handler over src.
func NewHandler(src BoxSource) *Handler {
	h := &Handler{src: src, mux: http.NewServeMux()}
	h.mux.HandleFunc("/boxes", h.listBoxes)
	h.mux.HandleFunc("/boxes/{index}", h.showBox)
	h.mux.HandleFunc("/boxes/{index}/chart", h.showChart)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listBoxes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	boxes, err := h.src.Boxes()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load boxes: %v", err))
		return
	}
	out := make([]BoxSummary, len(boxes))
	for i, b := range boxes {
		out[i] = BoxSummary{Index: b.Index, Steps: len(b.Steps), Degenerate: b.Degenerate, Final: b.Final()}
	}
	httputil.WriteJSONOK(w, out)
}

func (h *Handler) showBox(w http.ResponseWriter, r *http.Request) {
	b, ok := h.lookup(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, b)
}

func (h *Handler) showChart(w http.ResponseWriter, r *http.Request) {
	b, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := TrajectoryChart(&buf, b); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

// lookup resolves {index} and writes the error response itself when it fails.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (Box, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return Box{}, false
	}
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid box index %q", r.PathValue("index")))
		return Box{}, false
	}
	boxes, err := h.src.Boxes()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load boxes: %v", err))
		return Box{}, false
	}
	for _, b := range boxes {
		if b.Index == idx {
			return b, true
		}
	}
	httputil.NotFound(w, fmt.Sprintf("box %d not found", idx))
	return Box{}, false
}
