package testutils

import (
	"embed"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

//go:embed tbadata
var tbadata embed.FS

// TestEventKey is the only event the fake TBA server knows about.
const TestEventKey = "2024wasno"

type FakeTBAServer struct {
	s *httptest.Server
}

func NewFakeTBAServer() *FakeTBAServer {
	r := chi.NewRouter()
	r.Use(requireAuthKey)
	r.Route("/event/{eventKey}", func(r chi.Router) {
		r.Get("/", eventHandler)
		r.Get("/teams/simple", eventFileHandler("teams.json"))
		r.Get("/matches", eventFileHandler("matches.json"))
		r.Get("/rankings", eventFileHandler("rankings.json"))
	})

	return &FakeTBAServer{
		s: httptest.NewServer(r),
	}
}

func (f *FakeTBAServer) Close() {
	f.s.Close()
}

func (f *FakeTBAServer) URL() string {
	return f.s.URL
}

func requireAuthKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-TBA-Auth-Key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"Error": "X-TBA-Auth-Key is a required header"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func eventHandler(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "eventKey") != TestEventKey {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"Error": "event not found"}`))
		return
	}
	serveTBAFile(w, "event.json")
}

func eventFileHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "eventKey") != TestEventKey {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"Error": "event not found"}`))
			return
		}
		serveTBAFile(w, name)
	}
}

func serveTBAFile(w http.ResponseWriter, name string) {
	b, err := tbadata.ReadFile(fmt.Sprintf("tbadata/%s", name))
	if err != nil {
		log.Printf("error reading tbadata/%s: %v", name, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
