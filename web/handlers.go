package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/unrolled/render"

	"github.com/DanielC11038/TempSlackBot/controller"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
)

const helpText = `POST /ask                       - ask a question about an ingested event ({"question": "...", "event_key": "..."})
POST /events/{eventKey}/ingest  - fetch an event from The Blue Alliance and index it
GET  /events                    - list known events and their index status
GET  /help                      - this text`

type askRequest struct {
	Question string `json:"question"`
	EventKey string `json:"event_key"`
}

type askResponse struct {
	Question string `json:"question"`
	EventKey string `json:"event_key,omitempty"`
	Answer   string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func rootHandler(render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Text(w, http.StatusOK, "event insights assistant")
	}
}

func helpHandler(render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Text(w, http.StatusOK, helpText)
	}
}

func listEventsHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, ctrl.ListEvents())
	}
}

func ingestHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventKey := chi.URLParam(r, "eventKey")

		result, err := ctrl.IngestEvent(r.Context(), eventKey)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, tba.ErrProvider) {
				status = http.StatusBadGateway
			}
			render.JSON(w, status, errorResponse{Error: err.Error()})
			return
		}

		render.JSON(w, http.StatusOK, result)
	}
}

func askHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseAskRequest(r)
		if err != nil {
			render.JSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		req.Question = strings.TrimSpace(req.Question)
		if req.Question == "" {
			render.JSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
			return
		}

		// Answer never fails; degraded grounding or a model error still
		// comes back as answer text.
		answer := ctrl.Answer(r.Context(), req.Question, req.EventKey)
		render.JSON(w, http.StatusOK, askResponse{
			Question: req.Question,
			EventKey: req.EventKey,
			Answer:   answer,
		})
	}
}

// parseAskRequest accepts either a JSON body or a form post.
func parseAskRequest(r *http.Request) (*askRequest, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.New("unable to parse request body")
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.New("unable to parse request form")
	}
	return &askRequest{
		Question: r.PostForm.Get("question"),
		EventKey: r.PostForm.Get("event_key"),
	}, nil
}
