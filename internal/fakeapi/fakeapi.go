// Package fakeapi is an in-process stand-in for the Anthropic API used by
// tests. It implements the messages, models, batches, and admin API key
// endpoints over in-memory state and records the last request it saw so
// tests can assert on headers and bodies. It deliberately does not import
// the SDK package; everything is plain JSON.
package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server holds the fake API state. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	// APIKey is the key requests must present; empty disables the check.
	APIKey string
	// FailStatus and FailCount make the next FailCount requests fail with
	// FailStatus before normal handling resumes (for retry tests).
	FailStatus int
	FailCount  int

	// Recorded from the most recent request.
	LastMethod  string
	LastPath    string
	LastQuery   string
	LastHeaders http.Header
	LastBody    []byte

	models  []map[string]any
	keys    map[string]map[string]any
	batches map[string]*batchState

	router chi.Router
}

type batchState struct {
	batch    map[string]any
	requests []json.RawMessage
}

// New returns a fake server seeded with two models and one API key.
func New() *Server {
	s := &Server{
		models: []map[string]any{
			{"type": "model", "id": "claude-haiku-4-5-20251001", "display_name": "Claude Haiku 4.5", "created_at": "2025-10-01T00:00:00Z"},
			{"type": "model", "id": "claude-sonnet-4-5-20250929", "display_name": "Claude Sonnet 4.5", "created_at": "2025-09-29T00:00:00Z"},
		},
		keys: map[string]map[string]any{
			"apikey_01": {
				"id": "apikey_01", "type": "api_key", "name": "ci-key",
				"status": "active", "partial_key_hint": "sk-ant-...abcd",
				"created_at": "2025-01-01T00:00:00Z",
				"created_by": map[string]any{"id": "user_01", "type": "user"},
			},
		},
		batches: map[string]*batchState{},
	}
	s.router = s.routes()
	return s
}

// Handler returns the http.Handler to mount in an httptest.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/messages", s.createMessage)
		r.Post("/messages/count_tokens", s.countTokens)
		r.Get("/models", s.listModels)
		r.Get("/models/{id}", s.getModel)
		r.Post("/messages/batches", s.createBatch)
		r.Get("/messages/batches", s.listBatches)
		r.Get("/messages/batches/{id}", s.getBatch)
		r.Get("/messages/batches/{id}/results", s.batchResults)
		r.Post("/messages/batches/{id}/cancel", s.cancelBatch)
		r.Delete("/messages/batches/{id}", s.deleteBatch)
		r.Get("/organizations/api_keys", s.listKeys)
		r.Get("/organizations/api_keys/{id}", s.getKey)
		r.Post("/organizations/api_keys/{id}", s.updateKey)
	})
	return r
}

// record captures the request and enforces auth / injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.LastMethod = r.Method
		s.LastPath = r.URL.Path
		s.LastQuery = r.URL.RawQuery
		s.LastHeaders = r.Header.Clone()
		s.LastBody = body
		failStatus, failing := s.FailStatus, s.FailCount > 0
		if failing {
			s.FailCount--
		}
		apiKey := s.APIKey
		s.mu.Unlock()

		if apiKey != "" && r.Header.Get("x-api-key") != apiKey {
			writeError(w, http.StatusUnauthorized, "authentication_error", "invalid x-api-key")
			return
		}
		if failing {
			w.Header().Set("retry-after", "1")
			writeError(w, failStatus, typeForStatus(failStatus), "injected failure")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model     string            `json:"model"`
		MaxTokens int               `json:"max_tokens"`
		Stream    bool              `json:"stream"`
		Messages  []json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "model and messages are required")
		return
	}
	if req.Stream {
		s.streamMessage(w, req.Model)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": "msg_fake_01", "type": "message", "role": "assistant",
		"model": req.Model,
		"content": []map[string]any{
			{"type": "text", "text": "Hello from the fake API"},
		},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 12, "output_tokens": 6},
	})
}

// streamMessage emits a fixed SSE exchange: "Hello" then " world".
func (s *Server) streamMessage(w http.ResponseWriter, model string) {
	w.Header().Set("content-type", "text/event-stream")
	flusher, _ := w.(http.Flusher)
	events := []string{
		`{"type":"message_start","message":{"id":"msg_fake_01","type":"message","role":"assistant","model":"` + model + `","content":[],"usage":{"input_tokens":12,"output_tokens":0}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"ping"}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":2}}`,
		`{"type":"message_stop"}`,
	}
	for _, ev := range events {
		fmt.Fprintf(w, "data: %s\n\n", ev)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) countTokens(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "model is required")
		return
	}
	// Deterministic stand-in: four bytes of content per token.
	total := 0
	for _, m := range req.Messages {
		total += len(m.Content)
	}
	writeJSON(w, http.StatusOK, map[string]any{"input_tokens": total / 4})
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	models := s.models
	s.mu.Unlock()

	start := 0
	if after := r.URL.Query().Get("after_id"); after != "" {
		for i, m := range models {
			if m["id"] == after {
				start = i + 1
			}
		}
	}
	limit := len(models)
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	end := start + limit
	if end > len(models) {
		end = len(models)
	}
	page := models[start:end]
	writeJSON(w, http.StatusOK, paginate(page, end < len(models)))
}

func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.models {
		if m["id"] == id {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found_error", "model not found: "+id)
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requests []json.RawMessage `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Requests) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "requests are required")
		return
	}
	s.mu.Lock()
	id := fmt.Sprintf("msgbatch_%02d", len(s.batches)+1)
	batch := map[string]any{
		"id": id, "type": "message_batch",
		"processing_status": "in_progress",
		"request_counts": map[string]int{
			"processing": len(req.Requests), "succeeded": 0, "errored": 0, "canceled": 0, "expired": 0,
		},
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"expires_at": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	}
	s.batches[id] = &batchState{batch: batch, requests: req.Requests}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, batch)
}

// FinishBatch marks a batch as ended with every request succeeded.
func (s *Server) FinishBatch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.batches[id]
	if !ok {
		return
	}
	st.batch["processing_status"] = "ended"
	st.batch["ended_at"] = time.Now().UTC().Format(time.RFC3339)
	st.batch["results_url"] = "/v1/messages/batches/" + id + "/results"
	st.batch["request_counts"] = map[string]int{
		"processing": 0, "succeeded": len(st.requests), "errored": 0, "canceled": 0, "expired": 0,
	}
}

func (s *Server) listBatches(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var data []map[string]any
	for _, st := range s.batches {
		data = append(data, st.batch)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(data, false))
}

func (s *Server) getBatch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.batches[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, st.batch)
}

func (s *Server) cancelBatch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.batches[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "batch not found")
		return
	}
	if st.batch["processing_status"] == "in_progress" {
		st.batch["processing_status"] = "canceling"
		st.batch["cancel_initiated_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, st.batch)
}

func (s *Server) deleteBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.batches[id]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "batch not found")
		return
	}
	if st.batch["processing_status"] != "ended" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "batch is still processing")
		return
	}
	delete(s.batches, id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "type": "message_batch_deleted"})
}

func (s *Server) batchResults(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st, ok := s.batches[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "batch not found")
		return
	}
	w.Header().Set("content-type", "application/x-jsonl")
	enc := json.NewEncoder(w)
	for _, raw := range st.requests {
		var req struct {
			CustomID string `json:"custom_id"`
			Params   struct {
				Model string `json:"model"`
			} `json:"params"`
		}
		_ = json.Unmarshal(raw, &req)
		_ = enc.Encode(map[string]any{
			"custom_id": req.CustomID,
			"result": map[string]any{
				"type": "succeeded",
				"message": map[string]any{
					"id": "msg_" + req.CustomID, "type": "message", "role": "assistant",
					"model":   req.Params.Model,
					"content": []map[string]any{{"type": "text", "text": "batch reply"}},
					"usage":   map[string]any{"input_tokens": 8, "output_tokens": 4},
				},
			},
		})
	}
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	var data []map[string]any
	for _, k := range s.keys {
		if status == "" || k["status"] == status {
			data = append(data, k)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(data, false))
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "api key not found")
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) updateKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string `json:"name"`
		Status *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "malformed body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "not_found_error", "api key not found")
		return
	}
	if req.Name != nil {
		k["name"] = *req.Name
	}
	if req.Status != nil {
		k["status"] = *req.Status
	}
	writeJSON(w, http.StatusOK, k)
}

func paginate[T any](data []T, hasMore bool) map[string]any {
	page := map[string]any{"data": data, "has_more": hasMore}
	if len(data) > 0 {
		if first, ok := any(data[0]).(map[string]any); ok {
			page["first_id"] = first["id"]
		}
		if last, ok := any(data[len(data)-1]).(map[string]any); ok {
			page["last_id"] = last["id"]
		}
	}
	return page
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"type": "error",
		"error": map[string]any{"type": errType, "message": message},
	})
}

func typeForStatus(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limit_error"
	case status == 529:
		return "overloaded_error"
	case status >= 500:
		return "api_error"
	default:
		return "invalid_request_error"
	}
}
