package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Documents) == "" {
		writeError(w, r, fmt.Errorf("%w: documents is required", domain.ErrInvalidInput))
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, r, fmt.Errorf("%w: questions must not be empty", domain.ErrInvalidInput))
		return
	}
	opts := req.Options.ToDomain()
	if err := opts.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	batch, err := s.ports.Answer.Answer(r.Context(), domain.AnswerRequest{
		DocumentURI: req.Documents,
		Questions:   req.Questions,
		Options:     opts,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewAnswerResponse(req.Questions, batch, req.Options.Explain))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Documents) == "" {
		writeError(w, r, fmt.Errorf("%w: documents is required", domain.ErrInvalidInput))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}
	opts := req.Options.ToDomain()
	if err := opts.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ports.Retrieval.Select(r.Context(), req.Documents, req.Question, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewSelectResponse(req.Question, result))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := []DocumentDTO{}
	if s.ports.Documents != nil {
		for _, d := range s.ports.Documents.List() {
			docs = append(docs, documentDTO(d))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleEvictDocument drops a cached chunk store: DELETE /v1/documents?uri=...
func (s *Server) handleEvictDocument(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, r, fmt.Errorf("%w: uri query parameter is required", domain.ErrInvalidInput))
		return
	}
	if s.ports.Documents == nil || !s.ports.Documents.Evict(uri) {
		writeError(w, r, fmt.Errorf("%s: %w", uri, domain.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body bounded by MaxBodyBytes.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		}
		return fmt.Errorf("%w: malformed JSON: %w", domain.ErrInvalidInput, err)
	}
	return nil
}
