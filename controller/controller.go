package controller

import (
	"context"
	"time"

	"github.com/itbasis/go-clock"
	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
	"github.com/DanielC11038/TempSlackBot/store"
)

// DefaultInstructions is the system prompt used when CHAT_INSTRUCTIONS is
// not configured.
const DefaultInstructions = "You are a helpful assistant answering questions about FIRST Robotics Competition events. " +
	"Prefer the authoritative stats provided over anything else when they conflict."

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 60 * time.Second
	defaultMaxTokens    = 700
)

// EventStatus is one entry of the selectable-event listing.
type EventStatus struct {
	EventKey string `json:"event_key"`
	IndexID  string `json:"index_id,omitempty"`
	Indexed  bool   `json:"indexed"`
}

// IngestResult reports how far an ingestion got. Ready is false when index
// creation succeeded but not every document finished processing within the
// poll window; the index is still usable for retrieval attempts.
type IngestResult struct {
	EventKey      string   `json:"event_key"`
	IndexID       string   `json:"index_id"`
	Ready         bool     `json:"ready"`
	FailedUploads []string `json:"failed_uploads,omitempty"`
	MatchCount    int      `json:"match_count"`
	TeamCount     int      `json:"team_count"`
}

// C encapsulates the ingestion and answering pipelines without worrying
// about any web layers.
type C interface {
	// IngestEvent fetches the event from the provider, derives metrics,
	// persists everything locally and builds a remote index from the
	// artifacts.
	IngestEvent(ctx context.Context, eventKey string) (*IngestResult, error)

	// Answer produces answer text for the question, grounded on whatever
	// context is available. It never fails; a model service error comes
	// back as readable text describing the failure.
	Answer(ctx context.Context, question, eventKey string) string

	ListEvents() []EventStatus
}

type controller struct {
	clock        clock.Clock
	tba          tba.Client
	ai           openai.Client
	store        store.Store
	logger       *zap.Logger
	instructions string

	pollInterval time.Duration
	pollTimeout  time.Duration
	maxTokens    int
}

func New(clock clock.Clock, tbaClient tba.Client, aiClient openai.Client, s store.Store, logger *zap.Logger, instructions string) (C, error) {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	c := &controller{
		clock:        clock,
		tba:          tbaClient,
		ai:           aiClient,
		store:        s,
		logger:       logger,
		instructions: instructions,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
		maxTokens:    defaultMaxTokens,
	}
	return c, nil
}

func (c *controller) ListEvents() []EventStatus {
	keys := c.store.ListKnownEvents()
	result := make([]EventStatus, 0, len(keys))
	for _, k := range keys {
		id, ok := c.store.GetIndexID(k)
		result = append(result, EventStatus{EventKey: k, IndexID: id, Indexed: ok})
	}
	return result
}
