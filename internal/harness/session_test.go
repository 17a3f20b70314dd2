package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// genai links go.opencensus.io, whose view worker starts in init and never exits.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeRecognizer struct {
	mu          sync.Mutex
	unsupported bool
	permErr     error
	listening   bool
}

func (r *fakeRecognizer) Supported() bool { return !r.unsupported }

func (r *fakeRecognizer) RequestPermission(context.Context) error { return r.permErr }

func (r *fakeRecognizer) StartListening() {
	r.mu.Lock()
	r.listening = true
	r.mu.Unlock()
}

func (r *fakeRecognizer) StopListening() {
	r.mu.Lock()
	r.listening = false
	r.mu.Unlock()
}

func (r *fakeRecognizer) isListening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listening
}

type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	cancels int
}

func (s *fakeSynth) Speak(text string) {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
}

func (s *fakeSynth) Cancel() {
	s.mu.Lock()
	s.cancels++
	s.mu.Unlock()
}

func (s *fakeSynth) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type fakeModel struct {
	prompt string
	send   func(ctx context.Context, text string) (string, error)
}

func (m *fakeModel) StartChat(_ context.Context, prompt string) (Chat, error) {
	m.prompt = prompt
	return fakeChat{send: m.send}, nil
}

type fakeChat struct {
	send func(ctx context.Context, text string) (string, error)
}

func (c fakeChat) Send(ctx context.Context, text string) (string, error) {
	return c.send(ctx, text)
}

type recorder struct {
	mu     sync.Mutex
	states []State
	errs   []error
	fatal  []bool
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnState: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		OnError: func(err error, fatal bool) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.fatal = append(r.fatal, fatal)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) lastError() (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil, false
	}
	return r.errs[len(r.errs)-1], r.fatal[len(r.fatal)-1]
}

func echo(_ context.Context, text string) (string, error) {
	return "You said: " + text, nil
}

func newTestSession(rec *fakeRecognizer, synth *fakeSynth, m ChatModel, r *recorder) *Session {
	return NewSession(rec, synth, m, Config{
		SystemPrompt: "be brief",
		SilenceDelay: 20 * time.Millisecond,
		ModelTimeout: 200 * time.Millisecond,
	}, r.hooks(), nil)
}

func TestStartRejectsUnsupportedBrowser(t *testing.T) {
	r := &recorder{}
	s := newTestSession(&fakeRecognizer{unsupported: true}, &fakeSynth{}, &fakeModel{send: echo}, r)

	assert.ErrorIs(t, s.Start(context.Background()), ErrSpeechUnsupported)
	assert.Equal(t, StateIdle, s.State())
	err, fatal := r.lastError()
	assert.ErrorIs(t, err, ErrSpeechUnsupported)
	assert.True(t, fatal)
}

func TestStartRequiresCredentials(t *testing.T) {
	r := &recorder{}
	s := newTestSession(&fakeRecognizer{}, &fakeSynth{}, nil, r)

	assert.ErrorIs(t, s.Start(context.Background()), ErrMissingCredentials)
	assert.Equal(t, StateIdle, s.State())
}

func TestStartMicrophoneDenied(t *testing.T) {
	r := &recorder{}
	synth := &fakeSynth{}
	s := newTestSession(&fakeRecognizer{permErr: ErrMicrophoneDenied}, synth, &fakeModel{send: echo}, r)

	assert.ErrorIs(t, s.Start(context.Background()), ErrMicrophoneDenied)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, synth.said())
	_, fatal := r.lastError()
	assert.True(t, fatal)
}

func TestConversationTurn(t *testing.T) {
	rec := &fakeRecognizer{}
	synth := &fakeSynth{}
	m := &fakeModel{send: echo}
	r := &recorder{}
	s := newTestSession(rec, synth, m, r)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "be brief", m.prompt)
	assert.Equal(t, StateSpeaking, s.State())
	assert.Equal(t, []string{DefaultOpeningLine}, synth.said())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyActive)

	// Input while the agent speaks is not an utterance.
	assert.False(t, s.Transcript("ignored"))

	s.SpeechFinished()
	assert.Equal(t, StateListening, s.State())
	assert.True(t, rec.isListening())

	assert.True(t, s.Transcript("yes"))
	assert.True(t, s.Transcript("yes it is"))

	require.Eventually(t, func() bool { return s.State() == StateSpeaking }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{DefaultOpeningLine, "You said: yes it is"}, synth.said())
	assert.False(t, rec.isListening())

	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, RoleAgent, history[0].Role)
	assert.Equal(t, Turn{Role: RoleUser, Content: "yes it is", At: history[1].At}, history[1])
	assert.Equal(t, RoleAgent, history[2].Role)

	s.SpeechFinished()
	assert.Equal(t, StateListening, s.State())

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, []State{StateSpeaking, StateListening, StateProcessing, StateSpeaking, StateListening}, r.states)
}

func TestNoDuplicateSubmissionWhileProcessing(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var sent []string
	m := &fakeModel{send: func(ctx context.Context, text string) (string, error) {
		mu.Lock()
		sent = append(sent, text)
		mu.Unlock()
		select {
		case <-release:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}}
	s := newTestSession(&fakeRecognizer{}, &fakeSynth{}, m, &recorder{})
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	s.SpeechFinished()
	require.True(t, s.Say("first"))
	assert.Equal(t, StateProcessing, s.State())

	assert.False(t, s.Say("second"))
	assert.False(t, s.Transcript("third"))

	close(release)
	require.Eventually(t, func() bool { return s.State() == StateSpeaking }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first"}, sent)
}

func TestModelTimeoutReturnsToListening(t *testing.T) {
	rec := &fakeRecognizer{}
	r := &recorder{}
	m := &fakeModel{send: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	s := NewSession(rec, &fakeSynth{}, m, Config{ModelTimeout: 30 * time.Millisecond}, r.hooks(), nil)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	s.SpeechFinished()
	require.True(t, s.Say("hello"))

	require.Eventually(t, func() bool { return s.State() == StateListening }, time.Second, 5*time.Millisecond)
	err, fatal := r.lastError()
	assert.ErrorIs(t, err, ErrModelTimeout)
	assert.False(t, fatal)
	assert.True(t, rec.isListening())

	// The next utterance is accepted again.
	assert.True(t, s.Transcript("again"))
}

func TestModelErrorIsTransient(t *testing.T) {
	r := &recorder{}
	m := &fakeModel{send: func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	s := newTestSession(&fakeRecognizer{}, &fakeSynth{}, m, r)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	s.SpeechFinished()
	require.True(t, s.Say("hello"))

	require.Eventually(t, func() bool { return s.State() == StateListening }, time.Second, 5*time.Millisecond)
	_, fatal := r.lastError()
	assert.False(t, fatal)
}

func TestEndDiscardsLateReply(t *testing.T) {
	release := make(chan struct{})
	m := &fakeModel{send: func(context.Context, string) (string, error) {
		<-release
		return "too late", nil
	}}
	rec := &fakeRecognizer{}
	synth := &fakeSynth{}
	s := newTestSession(rec, synth, m, &recorder{})

	require.NoError(t, s.Start(context.Background()))
	s.SpeechFinished()
	require.True(t, s.Say("hello"))

	s.End()
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, rec.isListening())

	close(release)
	s.Close()

	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []string{DefaultOpeningLine}, synth.said())
	for _, turn := range s.History() {
		assert.NotEqual(t, "too late", turn.Content)
	}
	synth.mu.Lock()
	assert.Equal(t, 1, synth.cancels)
	synth.mu.Unlock()
}

func TestEndCancelsPendingSilence(t *testing.T) {
	var calls int
	var mu sync.Mutex
	m := &fakeModel{send: func(context.Context, string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "hi", nil
	}}
	s := newTestSession(&fakeRecognizer{}, &fakeSynth{}, m, &recorder{})

	require.NoError(t, s.Start(context.Background()))
	s.SpeechFinished()
	require.True(t, s.Transcript("hello"))
	s.End()

	time.Sleep(60 * time.Millisecond)
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
	assert.Equal(t, StateIdle, s.State())
}

func TestRestartAfterEnd(t *testing.T) {
	s := newTestSession(&fakeRecognizer{}, &fakeSynth{}, &fakeModel{send: echo}, &recorder{})
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	s.End()
	s.End()
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, StateSpeaking, s.State())
	assert.Len(t, s.History(), 1)
}

func TestBuildSystemPrompt(t *testing.T) {
	c := &model.Campaign{
		Name:       "Villa Project Launch",
		Script:     "Hello, I'm reaching out about our new villa project launch.",
		Objective:  model.StringPtr("Pre-launch bookings for villa project."),
		Guidelines: model.StringPtr("  "),
	}
	prompt := BuildSystemPrompt(c)
	assert.Contains(t, prompt, "\"Villa Project Launch\"")
	assert.Contains(t, prompt, "Objective:\nPre-launch bookings for villa project.")
	assert.Contains(t, prompt, "Script:\nHello, I'm reaching out")
	assert.NotContains(t, prompt, "Guidelines:")
	assert.NotContains(t, prompt, "Call flow:")
}

func TestOpeningLine(t *testing.T) {
	assert.Equal(t, DefaultOpeningLine, OpeningLine(""))
	assert.Equal(t, "Hello, am I speaking with Emily?", OpeningLine("Emily Johnson"))
}
