package tba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/DanielC11038/TempSlackBot/model"
)

const TBAURL = "https://www.thebluealliance.com/api/v3"

// ErrProvider wraps every failure talking to The Blue Alliance so callers
// can tell a fetch problem apart from everything downstream.
var ErrProvider = errors.New("event data provider error")

// ErrNoAPIKey is returned before any request is made when the access key
// was never configured.
var ErrNoAPIKey = fmt.Errorf("%w: no TBA auth key configured", ErrProvider)

type Client interface {
	// GetEventBundle fetches the event metadata, team roster, match list
	// and rankings for one event. All four reads must succeed; a partial
	// bundle is never returned.
	GetEventBundle(ctx context.Context, eventKey string) (*model.EventBundle, error)
}

type client struct {
	url        string
	authKey    string
	httpClient *http.Client
}

func New(authKey string) (Client, error) {
	c := &client{
		url:     TBAURL,
		authKey: authKey,
		httpClient: &http.Client{
			Timeout: 1 * time.Minute,
		},
	}
	return c, nil
}

func NewForTest(url, authKey string) Client {
	return &client{
		url:     url,
		authKey: authKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *client) GetEventBundle(ctx context.Context, eventKey string) (*model.EventBundle, error) {
	if c.authKey == "" {
		return nil, ErrNoAPIKey
	}

	var (
		event, teams, rankings json.RawMessage
		matches                []tbaMatch
		errs                   [4]error
	)

	// The four reads are independent, so issue them together and require
	// every one of them to succeed.
	wg := &sync.WaitGroup{}
	wg.Add(4)
	go func() {
		defer wg.Done()
		errs[0] = c.get(ctx, fmt.Sprintf("/event/%s", eventKey), &event)
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.get(ctx, fmt.Sprintf("/event/%s/teams/simple", eventKey), &teams)
	}()
	go func() {
		defer wg.Done()
		errs[2] = c.get(ctx, fmt.Sprintf("/event/%s/matches", eventKey), &matches)
	}()
	go func() {
		defer wg.Done()
		errs[3] = c.get(ctx, fmt.Sprintf("/event/%s/rankings", eventKey), &rankings)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	bundle := &model.EventBundle{
		EventKey: eventKey,
		Event:    event,
		Teams:    teams,
		Rankings: rankings,
		Matches:  make([]model.Match, 0, len(matches)),
	}
	for i := range matches {
		bundle.Matches = append(bundle.Matches, matches[i].toMatch(eventKey))
	}

	return bundle, nil
}

func (c *client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s", c.url, path), nil)
	if err != nil {
		return fmt.Errorf("%w: error creating http request: %v", ErrProvider, err)
	}
	req.Header.Set("X-TBA-Auth-Key", c.authKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: error sending http request: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status code %d from %s: %s", ErrProvider, resp.StatusCode, path, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: error parsing response from %s: %v", ErrProvider, path, err)
	}

	return nil
}
