package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/models"
	"github.com/manifest-network/powchain/internal/session"
)

const maxBodyBytes = 1 << 20

type AppendRequest struct {
	Data string `json:"data"`
}

type TamperRequest struct {
	Data   string `json:"data"`
	Rehash *bool  `json:"rehash,omitempty"`
}

type TamperResponse struct {
	Applied bool              `json:"applied"`
	State   models.ChainState `json:"state"`
}

type DifficultyRequest struct {
	Difficulty int `json:"difficulty"`
}

type BlockResponse struct {
	Block  models.Block       `json:"block"`
	Report models.BlockReport `json:"report"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Server exposes a session over HTTP/JSON.
type Server struct {
	session       *session.Session
	defaultRehash bool
	mux           *http.ServeMux
}

// NewServer builds the handler. defaultRehash selects the tamper mode used
// when a request does not specify one.
func NewServer(s *session.Session, defaultRehash bool) *Server {
	srv := &Server{
		session:       s,
		defaultRehash: defaultRehash,
		mux:           http.NewServeMux(),
	}
	srv.mux.HandleFunc("GET /healthz", srv.handleHealth)
	srv.mux.HandleFunc("GET /chain", srv.handleState)
	srv.mux.HandleFunc("GET /chain/valid", srv.handleValid)
	srv.mux.HandleFunc("GET /chain/blocks/{index}", srv.handleBlock)
	srv.mux.HandleFunc("POST /chain/blocks", srv.handleAppend)
	srv.mux.HandleFunc("PUT /chain/blocks/{index}/data", srv.handleTamper)
	srv.mux.HandleFunc("PUT /chain/difficulty", srv.handleDifficulty)
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleValid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"valid": s.session.Valid()})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	state := s.session.State()
	if index >= uint64(len(state.Blocks)) {
		writeError(w, http.StatusNotFound, fmt.Errorf("block %d not found", index))
		return
	}
	writeJSON(w, http.StatusOK, BlockResponse{
		Block:  state.Blocks[index],
		Report: state.Reports[index],
	})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req AppendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	block, err := s.session.Append(r.Context(), req.Data)
	switch {
	case errors.Is(err, session.ErrEmptyData):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		// The client went away; the block is still being mined.
		slog.Warn("Append abandoned by client", "error", err)
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *Server) handleTamper(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req TamperRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mode := chain.TamperDataOnly
	rehash := s.defaultRehash
	if req.Rehash != nil {
		rehash = *req.Rehash
	}
	if rehash {
		mode = chain.TamperRehash
	}

	applied, err := s.session.Tamper(index, req.Data, mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, TamperResponse{Applied: applied, State: s.session.State()})
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req DifficultyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.session.SetDifficulty(req.Difficulty); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"difficulty": s.session.Difficulty()})
}

func parseIndex(r *http.Request) (uint64, error) {
	raw := r.PathValue("index")
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", raw)
	}
	return index, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
