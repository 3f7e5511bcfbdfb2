package chat

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/omochice/chatview/pkg/logger"
	"github.com/omochice/chatview/pkg/protocol"
	"go.uber.org/zap"
)

// DefaultTimestampLayout formats local time like the id-ID locale
// time string, e.g. "10.04.05".
const DefaultTimestampLayout = "15.04.05"

var (
	// ErrMissingUsername is returned by New when no local username is
	// configured. A session cannot exist without one.
	ErrMissingUsername = errors.New("chat: local username is required")

	// ErrMissingChannel is returned by New when no transport is given.
	ErrMissingChannel = errors.New("chat: transport channel is required")
)

// State is the registration state of a session.
type State int32

const (
	StateUnregistered State = iota
	StateRegistered
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "UNREGISTERED"
	case StateRegistered:
		return "REGISTERED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Session.
type Config struct {
	// Username is the local user announced on activation. Required.
	Username string
	// Channel receives every outbound envelope. Required.
	Channel Channel
	// Input is the buffer drained on submit. A fresh one is used if nil.
	Input *Input
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// TimestampLayout defaults to DefaultTimestampLayout.
	TimestampLayout string
	// OnChange is called with the new snapshot after every mutation, from
	// the goroutine processing events.
	OnChange func(ViewModel)
}

// Session is one client's view of the chat. Events are applied by a single
// goroutine (see Run); View may be called from any goroutine.
type Session struct {
	id       string
	username string
	channel  Channel
	input    *Input
	log      *zap.Logger
	now      func() time.Time
	layout   string
	onChange func(ViewModel)

	state atomic.Int32
	view  atomic.Pointer[ViewModel]

	// Owned by the processing goroutine.
	users    []UserProfile
	messages []protocol.ChatMessage
}

// New creates an unregistered session with an empty roster and timeline.
func New(cfg Config) (*Session, error) {
	if cfg.Username == "" {
		return nil, ErrMissingUsername
	}
	if cfg.Channel == nil {
		return nil, ErrMissingChannel
	}

	s := &Session{
		id:       uuid.NewString(),
		username: cfg.Username,
		channel:  cfg.Channel,
		input:    cfg.Input,
		now:      cfg.Now,
		layout:   cfg.TimestampLayout,
		onChange: cfg.OnChange,
	}
	if s.input == nil {
		s.input = &Input{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.layout == "" {
		s.layout = DefaultTimestampLayout
	}
	s.log = logger.OrNop(cfg.Logger).Named("session").With(
		zap.String("session", s.id),
		zap.String("username", s.username),
	)
	s.view.Store(&ViewModel{})
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// Username returns the local username.
func (s *Session) Username() string {
	return s.username
}

// Input returns the buffer drained on submit.
func (s *Session) Input() *Input {
	return s.input
}

// State returns the registration state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// View returns the latest published snapshot.
func (s *Session) View() ViewModel {
	return *s.view.Load()
}

// Activate sends the register envelope. It runs once; later calls do
// nothing. A failed send is logged and not retried, and the session still
// counts as registered.
func (s *Session) Activate() {
	if !s.state.CompareAndSwap(int32(StateUnregistered), int32(StateRegistered)) {
		return
	}

	if err := s.send(protocol.Register{Username: s.username}); err != nil {
		s.log.Error("Failed to send register message", zap.Error(err))
		return
	}
	s.log.Debug("Register message sent")
}

// Run applies events until ctx is done or events is closed.
func (s *Session) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.Process(ev)
		}
	}
}

// Process applies a single event. It must not be called concurrently with
// itself or with Run.
func (s *Session) Process(ev Event) {
	switch ev := ev.(type) {
	case FrameReceived:
		s.handleFrame(ev.Frame)
	case InputEdited:
		s.input.Set(ev.Text)
	case SubmitRequested:
		s.submit()
	default:
		s.log.Warn("Ignoring unknown event", zap.String("type", eventName(ev)))
	}
}

func (s *Session) handleFrame(frame string) {
	env, err := protocol.Decode([]byte(frame))
	if err != nil {
		s.log.Error("Error parsing websocket message", zap.Error(err))
		return
	}

	switch env := env.(type) {
	case protocol.Users:
		s.replaceRoster(env.Names)
	case protocol.Message:
		s.ingest(env)
	case protocol.Register:
		// Registration echoes carry nothing for the view.
	default:
		// Kinds added later are ignored.
	}
}

// replaceRoster swaps in a fresh roster built from names.
func (s *Session) replaceRoster(names []string) {
	users := make([]UserProfile, 0, len(names))
	for _, name := range names {
		users = append(users, NewUserProfile(name))
	}
	s.users = users
	s.log.Debug("Roster replaced", zap.Int("users", len(users)))
	s.publish()
}

func (s *Session) ingest(env protocol.Message) {
	msg, err := protocol.DecodeChatMessage(env.Data)
	if err != nil {
		s.log.Error("Error parsing message data", zap.Error(err))
		return
	}

	s.messages = append(s.messages, msg)
	s.log.Debug("Received message",
		zap.String("from", msg.From),
		zap.Int("messages", len(s.messages)))
	s.publish()
}

// submit drains the input buffer into a message envelope. The buffer is
// cleared even when the send fails.
func (s *Session) submit() {
	body, ok := s.input.take()
	if !ok {
		return
	}

	payload, err := protocol.EncodeOutbound(protocol.OutboundMessage{
		Body:      body,
		Timestamp: s.now().Format(s.layout),
	})
	if err != nil {
		s.log.Error("Failed to encode message", zap.Error(err))
		return
	}

	if err := s.send(protocol.Message{Data: payload}); err != nil {
		s.log.Error("Error sending to channel", zap.Error(err))
	}
}

func (s *Session) send(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	return s.channel.Submit(string(data))
}

// publish stores a snapshot of the current state and notifies OnChange.
func (s *Session) publish() {
	vm := &ViewModel{
		Users:    slices.Clip(s.users),
		Messages: slices.Clip(s.messages),
	}
	s.view.Store(vm)
	if s.onChange != nil {
		s.onChange(*vm)
	}
}
