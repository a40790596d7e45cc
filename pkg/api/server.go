package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/postsearch/pkg/log"
	"github.com/rubiojr/postsearch/pkg/metrics"
	"github.com/rubiojr/postsearch/pkg/search"
)

const (
	msgQueryRequired = "Query parameter is required"
	msgInternal      = "Internal server error"
)

// DefaultRequestTimeout bounds each request when Options leaves it unset.
const DefaultRequestTimeout = 5 * time.Second

type Options struct {
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

type Server struct {
	coordinator *search.Coordinator
	metrics     *metrics.Metrics
	timeout     time.Duration
	logger      *log.Logger
	upgrader    websocket.Upgrader
}

func NewServer(coordinator *search.Coordinator, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Server{
		coordinator: coordinator,
		metrics:     opts.Metrics,
		timeout:     opts.RequestTimeout,
		logger:      log.ForService("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same policy as CorsMiddleware.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the complete HTTP handler: routes plus middleware.
// The WebSocket endpoint bypasses compression and the request timeout
// since its connection outlives a single request.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	s.RegisterRoutes(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /ws/autocomplete", s.HandleAutocompleteWS)
	root.Handle("/", gzhttp.GzipHandler(s.instrument(api, s.recoverPanics(s.withTimeout(api)))))

	return CorsMiddleware(RequestIDMiddleware(root))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}

// fail maps a coordinator error to its HTTP response. Only validation
// errors are shown to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, search.ErrEmptyQuery) {
		s.writeError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	s.logger.With("request_id", RequestID(r.Context())).
		With("path", r.URL.Path).
		With("q", r.URL.Query().Get("q")).
		With("cursor", r.URL.Query().Get("cursor")).
		Errorf("request failed: %v", err)
	s.writeError(w, http.StatusInternalServerError, msgInternal)
}
