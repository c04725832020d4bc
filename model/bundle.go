package model

import "encoding/json"

// EventBundle is everything fetched from the event data provider for one
// event in a single ingestion. Event, Teams and Rankings are kept as the
// provider's own JSON; matches are normalized into the Match shape.
type EventBundle struct {
	EventKey string          `json:"event_key"`
	Event    json.RawMessage `json:"event"`
	Teams    json.RawMessage `json:"teams"`
	Rankings json.RawMessage `json:"rankings"`
	Matches  []Match         `json:"matches"`
}
