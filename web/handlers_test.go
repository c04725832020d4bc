package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/unrolled/render"

	"github.com/DanielC11038/TempSlackBot/controller"
	"github.com/DanielC11038/TempSlackBot/controller/mockcontroller"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
)

func newTestServer(ctrl controller.C) *httptest.Server {
	return httptest.NewServer(getRouter(ctrl, render.New()))
}

func TestAskHandler(t *testing.T) {
	ctrl := &mockcontroller.C{}
	ctrl.On("Answer", mock.Anything, "who won the finals?", "2024wasno").
		Return("frc2910 and frc1318 won 101-97.")

	server := newTestServer(ctrl)
	defer server.Close()

	body := `{"question": "who won the finals?", "event_key": "2024wasno"}`
	resp, err := http.Post(fmt.Sprintf("%s/ask", server.URL), "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got askResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "frc2910 and frc1318 won 101-97.", got.Answer)
	require.Equal(t, "2024wasno", got.EventKey)
	ctrl.AssertExpectations(t)
}

func TestAskHandlerAcceptsFormPost(t *testing.T) {
	ctrl := &mockcontroller.C{}
	ctrl.On("Answer", mock.Anything, "who won the finals?", "2024wasno").
		Return("frc2910 and frc1318 won 101-97.")

	server := newTestServer(ctrl)
	defer server.Close()

	form := url.Values{"question": {"who won the finals?"}, "event_key": {"2024wasno"}}
	resp, err := http.PostForm(fmt.Sprintf("%s/ask", server.URL), form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got askResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "frc2910 and frc1318 won 101-97.", got.Answer)
	ctrl.AssertExpectations(t)
}

func TestAskHandlerRequiresQuestion(t *testing.T) {
	ctrl := &mockcontroller.C{}
	server := newTestServer(ctrl)
	defer server.Close()

	resp, err := http.Post(fmt.Sprintf("%s/ask", server.URL), "application/json", strings.NewReader(`{"question": "  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	ctrl.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestHandler(t *testing.T) {
	ctrl := &mockcontroller.C{}
	ctrl.On("IngestEvent", mock.Anything, "2024wasno").Return(&controller.IngestResult{
		EventKey:   "2024wasno",
		IndexID:    "vs_abc123",
		Ready:      true,
		MatchCount: 72,
		TeamCount:  30,
	}, nil)

	server := newTestServer(ctrl)
	defer server.Close()

	resp, err := http.Post(fmt.Sprintf("%s/events/2024wasno/ingest", server.URL), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got controller.IngestResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "vs_abc123", got.IndexID)
	require.True(t, got.Ready)
	ctrl.AssertExpectations(t)
}

func TestIngestHandlerProviderError(t *testing.T) {
	ctrl := &mockcontroller.C{}
	ctrl.On("IngestEvent", mock.Anything, "2024nope").
		Return(nil, fmt.Errorf("%w: unexpected status code 404", tba.ErrProvider))

	server := newTestServer(ctrl)
	defer server.Close()

	resp, err := http.Post(fmt.Sprintf("%s/events/2024nope/ingest", server.URL), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestListEventsHandler(t *testing.T) {
	ctrl := &mockcontroller.C{}
	ctrl.On("ListEvents").Return([]controller.EventStatus{
		{EventKey: "2024wasno", IndexID: "vs_abc123", Indexed: true},
		{EventKey: "2024orwil", Indexed: false},
	})

	server := newTestServer(ctrl)
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/events", server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []controller.EventStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	require.True(t, got[0].Indexed)
	require.False(t, got[1].Indexed)
}

func TestHelpHandler(t *testing.T) {
	ctrl := &mockcontroller.C{}
	server := newTestServer(ctrl)
	defer server.Close()

	resp, err := http.Get(fmt.Sprintf("%s/help", server.URL))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
