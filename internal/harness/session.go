// Package harness drives a test call against a campaign: the browser listens
// and speaks, the Session decides when a user turn is complete and asks the
// chat model for the agent's reply.
package harness

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/metrics"
)

type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

var (
	ErrSpeechUnsupported  = errors.New("speech recognition is not supported by this browser")
	ErrMicrophoneDenied   = errors.New("microphone access was denied")
	ErrMissingCredentials = errors.New("the voice agent model is not configured")
	ErrModelTimeout       = errors.New("the voice agent did not respond in time")
	ErrEmptyReply         = errors.New("the voice agent returned an empty reply")
	ErrAlreadyActive      = errors.New("a test call is already in progress")
	ErrCallEnded          = errors.New("the test call was ended")
)

const (
	DefaultSilenceDelay = 1500 * time.Millisecond
	DefaultModelTimeout = 15 * time.Second
	DefaultOpeningLine  = "Hello, am I speaking with Shiva?"
)

// Recognizer is the speech-to-text side of the browser.
type Recognizer interface {
	Supported() bool
	RequestPermission(ctx context.Context) error
	StartListening()
	StopListening()
}

// Synthesizer is the text-to-speech side of the browser. Completion is
// reported back through Session.SpeechFinished.
type Synthesizer interface {
	Speak(text string)
	Cancel()
}

// ChatModel opens a conversation primed with a system prompt.
type ChatModel interface {
	StartChat(ctx context.Context, systemPrompt string) (Chat, error)
}

type Chat interface {
	Send(ctx context.Context, text string) (string, error)
}

const (
	RoleAgent = "assistant"
	RoleUser  = "user"
)

type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Hooks observe the session. They run with the session lock held and must
// not call back into the Session.
type Hooks struct {
	OnState func(State)
	OnTurn  func(Turn)
	OnError func(err error, fatal bool)
}

type Config struct {
	SystemPrompt string
	OpeningLine  string
	SilenceDelay time.Duration
	ModelTimeout time.Duration
}

// Session is the turn-taking state machine for one test call:
// Idle → Speaking (opening line) → Listening → Processing → Speaking → … → Idle.
// User input is only accepted while Listening.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	starting bool
	gen      uint64
	pending  string
	silence  *time.Timer
	cancel   context.CancelFunc
	chat     Chat
	history  []Turn

	rec   Recognizer
	synth Synthesizer
	model ChatModel
	cfg   Config
	hooks Hooks
	log   *zap.Logger
	wg    sync.WaitGroup
	now   func() time.Time
}

// NewSession builds an idle session. model may be nil when no credentials are
// configured; Start then fails with ErrMissingCredentials.
func NewSession(rec Recognizer, synth Synthesizer, model ChatModel, cfg Config, hooks Hooks, log *zap.Logger) *Session {
	if cfg.SilenceDelay <= 0 {
		cfg.SilenceDelay = DefaultSilenceDelay
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	if cfg.OpeningLine == "" {
		cfg.OpeningLine = DefaultOpeningLine
	}
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:    id,
		state: StateIdle,
		rec:   rec,
		synth: synth,
		model: model,
		cfg:   cfg,
		hooks: hooks,
		log:   log.With(zap.String("session_id", id)),
		now:   time.Now,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// Start checks capabilities, opens the chat and speaks the opening line.
// Capability failures are fatal: they are reported through OnError and the
// session stays Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle || s.starting {
		s.mu.Unlock()
		return ErrAlreadyActive
	}
	if s.rec == nil || !s.rec.Supported() {
		s.reportLocked(ErrSpeechUnsupported, true)
		s.mu.Unlock()
		return ErrSpeechUnsupported
	}
	if s.model == nil {
		s.reportLocked(ErrMissingCredentials, true)
		s.mu.Unlock()
		return ErrMissingCredentials
	}
	s.starting = true
	gen := s.gen
	s.mu.Unlock()

	var chat Chat
	err := s.rec.RequestPermission(ctx)
	if err == nil {
		chat, err = s.model.StartChat(ctx, s.cfg.SystemPrompt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.starting = false
	if gen != s.gen {
		return ErrCallEnded
	}
	if err != nil {
		s.reportLocked(err, true)
		return err
	}

	s.chat = chat
	s.history = nil
	metrics.HarnessActiveSessions.Inc()
	s.log.Info("📞 test call started")
	s.speakLocked(s.cfg.OpeningLine)
	return nil
}

// Transcript reports the recognizer's current text for the utterance in
// progress. Once it stops changing for SilenceDelay the utterance is sent to
// the model. Input outside Listening is ignored and reported as false.
func (s *Session) Transcript(text string) bool {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening || text == "" {
		return false
	}
	if text == s.pending {
		return true
	}
	s.pending = text
	s.stopSilenceLocked()
	gen := s.gen
	s.silence = time.AfterFunc(s.cfg.SilenceDelay, func() { s.silenceElapsed(gen, text) })
	return true
}

// Say submits typed input immediately, bypassing the silence delay.
func (s *Session) Say(text string) bool {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening || text == "" {
		return false
	}
	s.submitLocked(text)
	return true
}

// SpeechFinished reports that the synthesizer finished the current utterance.
func (s *Session) SpeechFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSpeaking {
		return
	}
	s.pending = ""
	s.setStateLocked(StateListening)
	s.rec.StartListening()
}

// End stops everything from any state: speech is cancelled, recognition
// stopped and any in-flight model reply is discarded when it arrives.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle && !s.starting {
		return
	}
	s.gen++
	s.stopSilenceLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pending = ""
	if s.state == StateIdle {
		return
	}
	if s.synth != nil {
		s.synth.Cancel()
	}
	s.rec.StopListening()
	s.chat = nil
	metrics.HarnessActiveSessions.Dec()
	s.log.Info("📴 test call ended", zap.Int("turns", len(s.history)))
	s.setStateLocked(StateIdle)
}

// Close ends the call and waits for in-flight model requests to return.
func (s *Session) Close() {
	s.End()
	s.wg.Wait()
}

func (s *Session) silenceElapsed(gen uint64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != StateListening || s.pending != text {
		return
	}
	s.submitLocked(text)
}

func (s *Session) submitLocked(text string) {
	s.stopSilenceLocked()
	s.pending = ""
	s.appendTurnLocked(RoleUser, text)
	s.setStateLocked(StateProcessing)
	s.rec.StopListening()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ModelTimeout)
	s.cancel = cancel
	gen := s.gen
	chat := s.chat

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		reply, err := chat.Send(ctx, text)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrModelTimeout
		}
		s.replyReceived(gen, reply, err)
	}()
}

func (s *Session) replyReceived(gen uint64, reply string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != StateProcessing {
		metrics.HarnessTurns.WithLabelValues("dropped").Inc()
		return
	}
	s.cancel = nil

	reply = strings.TrimSpace(reply)
	if err == nil && reply == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrModelTimeout) {
			outcome = "timeout"
		}
		metrics.HarnessTurns.WithLabelValues(outcome).Inc()
		s.log.Warn("model turn failed", zap.Error(err))
		s.reportLocked(err, false)
		s.setStateLocked(StateListening)
		s.rec.StartListening()
		return
	}

	metrics.HarnessTurns.WithLabelValues("ok").Inc()
	s.speakLocked(reply)
}

func (s *Session) speakLocked(text string) {
	s.appendTurnLocked(RoleAgent, text)
	s.setStateLocked(StateSpeaking)
	s.rec.StopListening()
	if s.synth != nil {
		s.synth.Speak(text)
	}
}

func (s *Session) appendTurnLocked(role, text string) {
	t := Turn{Role: role, Content: text, At: s.now()}
	s.history = append(s.history, t)
	if s.hooks.OnTurn != nil {
		s.hooks.OnTurn(t)
	}
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	if s.hooks.OnState != nil {
		s.hooks.OnState(st)
	}
}

func (s *Session) reportLocked(err error, fatal bool) {
	if s.hooks.OnError != nil {
		s.hooks.OnError(err, fatal)
	}
}

func (s *Session) stopSilenceLocked() {
	if s.silence != nil {
		s.silence.Stop()
		s.silence = nil
	}
}
