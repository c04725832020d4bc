package controller

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/model"
	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/platforms/openai/mockopenai"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
	"github.com/DanielC11038/TempSlackBot/platforms/tba/mocktba"
	"github.com/DanielC11038/TempSlackBot/store"
)

func newIngestTestController(t *testing.T, tbaClient *mocktba.Client, ai *mockopenai.Client) (*controller, store.Store) {
	t.Helper()

	s, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	return &controller{
		clock:        clock.NewMock(),
		tba:          tbaClient,
		ai:           ai,
		store:        s,
		logger:       zap.NewNop(),
		instructions: DefaultInstructions,
		pollTimeout:  0, // a single poll pass in tests
		pollInterval: defaultPollInterval,
		maxTokens:    defaultMaxTokens,
	}, s
}

func testBundle(eventKey string) *model.EventBundle {
	red, blue := 110, 95
	return &model.EventBundle{
		EventKey: eventKey,
		Event:    json.RawMessage(`{"key":"` + eventKey + `","name":"Test Event"}`),
		Teams:    json.RawMessage(`[{"key":"frc1"},{"key":"frc2"}]`),
		Rankings: json.RawMessage(`{"rankings":[]}`),
		Matches: []model.Match{
			{
				Key:         eventKey + "_qm1",
				EventKey:    eventKey,
				CompLevel:   model.CompLevelQual,
				MatchNumber: 1,
				Red:         model.Alliance{TeamKeys: []string{"frc1"}, Score: &red},
				Blue:        model.Alliance{TeamKeys: []string{"frc2"}, Score: &blue},
			},
		},
	}
}

func processedFiles(n int) []openai.FileStatus {
	files := make([]openai.FileStatus, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, openai.FileStatus{ID: "file-" + string(rune('a'+i)), Status: "processed"})
	}
	return files
}

func TestIngestEventSuccess(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, s := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(testBundle("2024wasno"), nil)
	ai.On("CreateVectorStore", mock.Anything, mock.MatchedBy(func(name string) bool {
		return len(name) > len("2024wasno-") && name[:len("2024wasno-")] == "2024wasno-"
	})).Return("vs_new1", nil)
	ai.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return("file-1", nil).Times(5)
	ai.On("AttachFile", mock.Anything, "vs_new1", "file-1").Return(nil).Times(5)
	ai.On("ListVectorStoreFiles", mock.Anything, "vs_new1").Return(processedFiles(5), nil)

	result, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.NoError(t, err)
	require.Equal(t, "vs_new1", result.IndexID)
	require.True(t, result.Ready)
	require.Empty(t, result.FailedUploads)
	require.Equal(t, 1, result.MatchCount)
	require.Equal(t, 2, result.TeamCount)

	// Every artifact was persisted and the mapping was recorded.
	for _, kind := range []string{store.KindEvent, store.KindTeams, store.KindMatches, store.KindRankings, store.KindMetrics} {
		_, err := s.ReadArtifact("2024wasno", kind)
		require.NoError(t, err, "missing %s artifact", kind)
	}
	id, ok := s.GetIndexID("2024wasno")
	require.True(t, ok)
	require.Equal(t, "vs_new1", id)

	tbaClient.AssertExpectations(t)
	ai.AssertExpectations(t)
}

func TestIngestEventProviderFailureWritesNothing(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, s := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(nil, tba.ErrProvider)

	_, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.ErrorIs(t, err, tba.ErrProvider)

	_, err = s.ReadArtifact("2024wasno", store.KindMatches)
	require.ErrorIs(t, err, store.ErrArtifactNotFound)
	_, ok := s.GetIndexID("2024wasno")
	require.False(t, ok)
}

func TestIngestEventIndexCreateFailureKeepsArtifacts(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, s := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(testBundle("2024wasno"), nil)
	ai.On("CreateVectorStore", mock.Anything, mock.Anything).Return("", openai.ErrUnrecognizedIndexResponse)

	_, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.ErrorIs(t, err, openai.ErrUnrecognizedIndexResponse)

	// Already-fetched artifacts stay on the local store.
	_, err = s.ReadArtifact("2024wasno", store.KindMetrics)
	require.NoError(t, err)
	_, ok := s.GetIndexID("2024wasno")
	require.False(t, ok)
}

func TestIngestEventTimeoutIsNotAnError(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, s := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(testBundle("2024wasno"), nil)
	ai.On("CreateVectorStore", mock.Anything, mock.Anything).Return("vs_slow", nil)
	ai.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return("file-1", nil)
	ai.On("AttachFile", mock.Anything, "vs_slow", "file-1").Return(nil)
	ai.On("ListVectorStoreFiles", mock.Anything, "vs_slow").
		Return([]openai.FileStatus{{ID: "file-1", Status: "in_progress"}}, nil)

	result, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.NoError(t, err)
	require.False(t, result.Ready)

	// The mapping is still recorded once creation succeeded.
	id, ok := s.GetIndexID("2024wasno")
	require.True(t, ok)
	require.Equal(t, "vs_slow", id)
}

// A failed listing mid-poll is logged and retried on the next tick; the
// wait still succeeds once a later listing reports every file processed.
func TestWaitForIndexToleratesTransientListErrors(t *testing.T) {
	ai := &mockopenai.Client{}
	mockClock := clock.NewMock()
	ctrl := &controller{
		clock:        mockClock,
		ai:           ai,
		logger:       zap.NewNop(),
		pollInterval: defaultPollInterval,
		pollTimeout:  24 * time.Hour,
	}

	ai.On("ListVectorStoreFiles", mock.Anything, "vs_flaky").
		Return(nil, errors.New("transient 500 from index service")).Once()
	ai.On("ListVectorStoreFiles", mock.Anything, "vs_flaky").Return(processedFiles(2), nil)

	done := make(chan bool, 1)
	go func() {
		done <- ctrl.waitForIndex(context.Background(), "vs_flaky")
	}()

	// Drive the mock clock forward one poll interval at a time until the
	// wait finishes. The first listing fails, so at least one retry tick
	// is needed before the processed listing is observed.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ready := <-done:
			require.True(t, ready)
			ai.AssertExpectations(t)
			return
		case <-deadline:
			t.Fatal("waitForIndex never finished")
		default:
			time.Sleep(time.Millisecond)
			mockClock.Add(ctrl.pollInterval)
		}
	}
}

func TestIngestEventPartialUploadProceeds(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, _ := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(testBundle("2024wasno"), nil)
	ai.On("CreateVectorStore", mock.Anything, mock.Anything).Return("vs_part", nil)
	ai.On("UploadFile", mock.Anything, "2024wasno-event.json", mock.Anything).Return("", errors.New("upload failed")).Once()
	ai.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return("file-1", nil)
	ai.On("AttachFile", mock.Anything, "vs_part", "file-1").Return(nil)
	ai.On("ListVectorStoreFiles", mock.Anything, "vs_part").Return(processedFiles(4), nil)

	result, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.NoError(t, err)
	require.Equal(t, []string{store.KindEvent}, result.FailedUploads)
	require.True(t, result.Ready)
}

func TestIngestEventAllUploadsFailing(t *testing.T) {
	tbaClient := &mocktba.Client{}
	ai := &mockopenai.Client{}
	ctrl, _ := newIngestTestController(t, tbaClient, ai)

	tbaClient.On("GetEventBundle", mock.Anything, "2024wasno").Return(testBundle("2024wasno"), nil)
	ai.On("CreateVectorStore", mock.Anything, mock.Anything).Return("vs_bad", nil)
	ai.On("UploadFile", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("upload failed"))

	_, err := ctrl.IngestEvent(context.Background(), "2024wasno")
	require.Error(t, err)
	require.Contains(t, err.Error(), "index upload failed for every artifact")
}
