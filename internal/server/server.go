// Package server exposes advice sessions over HTTP so a storefront page can render the
// transcript and busy flag and submit new turns.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/longkey1/shopadvice/internal/catalog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxMessageBytes = 64 << 10

// Server serves the advice render surface and the read-only catalog.
type Server struct {
	sessions *registry
	products []catalog.Entry
	log      logrus.FieldLogger
	handler  http.Handler
}

// transcriptResponse is what a presentation layer needs to draw the chat widget.
type transcriptResponse struct {
	SessionID string        `json:"session_id"`
	Busy      bool          `json:"busy"`
	Turns     []advice.Turn `json:"turns"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the router. factory is called once per visitor session.
func New(factory SessionFactory, products []catalog.Entry, log logrus.FieldLogger) *Server {
	s := &Server{
		sessions: newRegistry(factory),
		products: products,
		log:      log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") }).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transcript", s.transcriptHandler).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/messages", s.messageHandler).Methods(http.MethodPost)
	api.HandleFunc("/products", s.productsHandler).Methods(http.MethodGet, http.MethodHead)

	var handler http.Handler = r
	handler = &logHandler{log: log, next: handler}
	handler = ensureSessionID(handler)
	s.handler = handler
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) transcriptHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	sess, ok := s.sessions.lookup(id)
	if !ok {
		// Not stored: a visitor without messages only ever sees the greeting
		sess = s.sessions.factory()
	}
	writeJSON(requestLog(r), w, http.StatusOK, snapshot(id, sess))
}

func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r)

	var req messageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		code := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		renderHTTPError(log, w, errors.Wrap(err, "failed to decode message request"), code)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		renderHTTPError(log, w, errors.New("message is empty"), http.StatusBadRequest)
		return
	}

	id := sessionID(r)
	sess := s.sessions.getOrCreate(id)
	if _, ok := sess.SubmitAsync(r.Context(), req.Message); !ok {
		renderHTTPError(log, w, errors.New("a reply is still being prepared"), http.StatusConflict)
		return
	}

	log.Info("advice request accepted")
	writeJSON(log, w, http.StatusAccepted, snapshot(id, sess))
}

func (s *Server) productsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := catalog.Filter(s.products, q.Get("category"), q.Get("q"))
	if products == nil {
		products = []catalog.Entry{}
	}
	writeJSON(requestLog(r), w, http.StatusOK, products)
}

func snapshot(id string, sess *advice.Session) transcriptResponse {
	turns, busy := sess.Snapshot()
	return transcriptResponse{
		SessionID: id,
		Busy:      busy,
		Turns:     turns,
	}
}

func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("error", err).Warn("failed to encode response")
	}
}

func renderHTTPError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Warn("request error")
	writeJSON(log, w, code, errorResponse{Error: err.Error()})
}
