package testutils

import (
	"testing"

	"github.com/itbasis/go-clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
	"github.com/DanielC11038/TempSlackBot/store"
)

// TestEnv wires the fake provider servers, real clients pointed at them, a
// file store over a temp dir and a mock clock: everything a pipeline test
// needs except the controller itself.
type TestEnv struct {
	Clock  *clock.Mock
	TBA    tba.Client
	OpenAI openai.Client
	Store  store.Store

	FakeTBA    *FakeTBAServer
	FakeOpenAI *FakeOpenAIServer
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	fakeTBA := NewFakeTBAServer()
	fakeOpenAI := NewFakeOpenAIServer()
	t.Cleanup(func() {
		fakeTBA.Close()
		fakeOpenAI.Close()
	})

	s, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	return &TestEnv{
		Clock:      clock.NewMock(),
		TBA:        tba.NewForTest(fakeTBA.URL(), "fake-tba-key"),
		OpenAI:     openai.NewForTest(fakeOpenAI.URL(), "fake-openai-key"),
		Store:      s,
		FakeTBA:    fakeTBA,
		FakeOpenAI: fakeOpenAI,
	}
}
