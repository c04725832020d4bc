package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// FakeVectorStoreID is the index id the fake OpenAI server hands out.
const FakeVectorStoreID = "vs_fake123"

// FakeOpenAIServer stands in for the chat-completion and vector-store
// APIs. The exported fields tune its behavior per test and must be set
// before the client under test starts calling.
type FakeOpenAIServer struct {
	s *httptest.Server

	// ChatAnswer is returned for plain completions.
	ChatAnswer string
	// RetrievalAnswer is returned for completions carrying a file_search
	// tool, unless RejectRetrieval is set.
	RetrievalAnswer string
	// RejectRetrieval makes tool-carrying completions fail with the
	// unsupported-parameter error payload.
	RejectRetrieval bool
	// PendingPolls is how many file listings report in_progress before
	// every file flips to processed.
	PendingPolls int

	mu       sync.Mutex
	uploads  int
	attached []string
	polls    int
}

func NewFakeOpenAIServer() *FakeOpenAIServer {
	f := &FakeOpenAIServer{
		ChatAnswer:      "a fake answer",
		RetrievalAnswer: "a fake retrieval-grounded answer",
	}

	r := chi.NewRouter()
	r.Post("/v1/chat/completions", f.chatHandler)
	r.Post("/v1/files", f.uploadHandler)
	r.Post("/v1/vector_stores", f.createStoreHandler)
	r.Route("/v1/vector_stores/{storeID}/files", func(r chi.Router) {
		r.Post("/", f.attachHandler)
		r.Get("/", f.listHandler)
	})

	f.s = httptest.NewServer(r)
	return f
}

func (f *FakeOpenAIServer) Close() {
	f.s.Close()
}

func (f *FakeOpenAIServer) URL() string {
	return f.s.URL
}

// AttachedFiles returns the file ids attached to the vector store so far.
func (f *FakeOpenAIServer) AttachedFiles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attached...)
}

func (f *FakeOpenAIServer) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Tools []json.RawMessage `json:"tools"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	answer := f.ChatAnswer
	if len(req.Tools) > 0 {
		if f.RejectRetrieval {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": {"message": "Unrecognized request argument supplied: tools", "type": "invalid_request_error", "param": "tools[0].file_search", "code": null}}`)
			return
		}
		answer = f.RetrievalAnswer
	}

	writeJSON(w, map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": answer}},
		},
	})
}

func (f *FakeOpenAIServer) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.uploads++
	id := fmt.Sprintf("file-%d", f.uploads)
	f.mu.Unlock()

	writeJSON(w, map[string]any{"id": id, "purpose": r.FormValue("purpose")})
}

func (f *FakeOpenAIServer) createStoreHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"id": FakeVectorStoreID})
}

func (f *FakeOpenAIServer) attachHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileID string `json:"file_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.attached = append(f.attached, req.FileID)
	f.mu.Unlock()

	writeJSON(w, map[string]any{"id": req.FileID, "status": "in_progress"})
}

func (f *FakeOpenAIServer) listHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.polls++
	status := "processed"
	if f.polls <= f.PendingPolls {
		status = "in_progress"
	}
	data := make([]map[string]any, 0, len(f.attached))
	for _, id := range f.attached {
		data = append(data, map[string]any{"id": id, "status": status})
	}
	f.mu.Unlock()

	writeJSON(w, map[string]any{"data": data})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}
