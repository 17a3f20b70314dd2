package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/harness"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

// HarnessController bridges a browser test call to a harness.Session over a
// websocket. The browser owns the microphone and speaker; it reports
// transcripts and speech completion, and the server tells it when to listen
// and what to say.
type HarnessController struct {
	CampaignService *service.CampaignService
	Audience        audience.Directory
	Model           harness.ChatModel
	SilenceDelay    time.Duration
	ModelTimeout    time.Duration
	Upgrader        websocket.Upgrader
	Logger          *zap.Logger
}

// clientMessage is sent by the browser.
type clientMessage struct {
	Type              string `json:"type"` // start, transcript, text, speech_ended, end
	Text              string `json:"text,omitempty"`
	SpeechRecognition bool   `json:"speechRecognition,omitempty"`
	Microphone        bool   `json:"microphone,omitempty"`
}

// serverMessage is sent to the browser.
type serverMessage struct {
	Type    string `json:"type"` // state, say, listen, stop_listening, cancel_speech, message, error
	State   string `json:"state,omitempty"`
	Text    string `json:"text,omitempty"`
	Role    string `json:"role,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// OriginChecker builds a websocket.Upgrader CheckOrigin from an allow list.
// An empty list keeps the same-origin default and "*" allows any origin.
// Requests without an Origin header come from non-browser clients and pass.
func OriginChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

func (c *HarnessController) TestCall(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	campaign, err := c.CampaignService.GetCampaign(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to fetch campaign")
		return
	}

	opening := harness.DefaultOpeningLine
	if raw := r.URL.Query().Get("contactId"); raw != "" && c.Audience != nil {
		contactID, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid contact ID")
			return
		}
		contact, err := c.Audience.Get(r.Context(), contactID)
		if err != nil {
			fail(w, c.Logger, err, "Contact not found", "Failed to fetch contact")
			return
		}
		opening = harness.OpeningLine(contact.Name)
	}

	conn, err := c.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		c.Logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b := newBridge(conn)
	session := harness.NewSession(b, b, c.Model, harness.Config{
		SystemPrompt: harness.BuildSystemPrompt(campaign),
		OpeningLine:  opening,
		SilenceDelay: c.SilenceDelay,
		ModelTimeout: c.ModelTimeout,
	}, b.hooks(), c.Logger.With(zap.Int("campaign_id", id)))

	go b.writePump()
	c.readLoop(r.Context(), b, session)

	session.Close()
	b.close()
}

func (c *HarnessController) readLoop(ctx context.Context, b *bridge, session *harness.Session) {
	var starts sync.WaitGroup
	defer starts.Wait()

	b.conn.SetReadLimit(maxMessageSize)
	for {
		var msg clientMessage
		if err := b.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Logger.Warn("test call connection lost", zap.Error(err))
			}
			session.End()
			return
		}

		switch msg.Type {
		case "start":
			b.setCapabilities(msg.SpeechRecognition, msg.Microphone)
			starts.Add(1)
			go func() {
				defer starts.Done()
				if err := session.Start(ctx); errors.Is(err, harness.ErrAlreadyActive) {
					b.hooks().OnError(err, false)
				}
			}()
		case "transcript":
			session.Transcript(msg.Text)
		case "text":
			session.Say(msg.Text)
		case "speech_ended":
			session.SpeechFinished()
		case "end":
			session.End()
		default:
			b.send(serverMessage{Type: "error", Code: "unknown_message", Message: "unknown message type " + strconv.Quote(msg.Type)})
		}
	}
}

// bridge adapts the websocket to harness.Recognizer and harness.Synthesizer.
type bridge struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once

	mu         sync.Mutex
	supported  bool
	microphone bool
}

func newBridge(conn *websocket.Conn) *bridge {
	return &bridge{
		conn: conn,
		out:  make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (b *bridge) setCapabilities(speech, mic bool) {
	b.mu.Lock()
	b.supported, b.microphone = speech, mic
	b.mu.Unlock()
}

func (b *bridge) Supported() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supported
}

func (b *bridge) RequestPermission(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.microphone {
		return harness.ErrMicrophoneDenied
	}
	return nil
}

func (b *bridge) StartListening() { b.send(serverMessage{Type: "listen"}) }
func (b *bridge) StopListening()  { b.send(serverMessage{Type: "stop_listening"}) }
func (b *bridge) Speak(text string) {
	b.send(serverMessage{Type: "say", Text: text})
}
func (b *bridge) Cancel() { b.send(serverMessage{Type: "cancel_speech"}) }

func (b *bridge) hooks() harness.Hooks {
	return harness.Hooks{
		OnState: func(s harness.State) {
			b.send(serverMessage{Type: "state", State: string(s)})
		},
		OnTurn: func(t harness.Turn) {
			b.send(serverMessage{Type: "message", Role: t.Role, Text: t.Content})
		},
		OnError: func(err error, fatal bool) {
			b.send(serverMessage{Type: "error", Code: errorCode(err), Message: err.Error(), Fatal: fatal})
		},
	}
}

// send queues msg for the write pump. Once the connection is closed messages
// are discarded.
func (b *bridge) send(msg serverMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case b.out <- raw:
	case <-b.done:
	}
}

func (b *bridge) writePump() {
	for {
		select {
		case raw := <-b.out:
			b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				b.close()
				return
			}
		case <-b.done:
			return
		}
	}
}

func (b *bridge) close() {
	b.once.Do(func() {
		close(b.done)
		b.conn.Close()
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, harness.ErrSpeechUnsupported):
		return "speech_unsupported"
	case errors.Is(err, harness.ErrMicrophoneDenied):
		return "microphone_denied"
	case errors.Is(err, harness.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, harness.ErrModelTimeout):
		return "model_timeout"
	case errors.Is(err, harness.ErrAlreadyActive):
		return "already_active"
	default:
		return "model_error"
	}
}

var (
	_ harness.Recognizer  = (*bridge)(nil)
	_ harness.Synthesizer = (*bridge)(nil)
)
