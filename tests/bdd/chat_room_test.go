package bdd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	chatApp "realtime_chat_service/internal/chat/app"
	"realtime_chat_service/internal/chat/domain"
	chatRepo "realtime_chat_service/internal/chat/repository"
	"realtime_chat_service/pkg/logger"

	"github.com/cucumber/godog"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

func TestFeatures(t *testing.T) {
	logger.SetNewNop()
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Paths:  []string{"./featureFiles"},
			Format: "pretty",
			Output: os.Stdout,
		},
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}

// InitializeScenario binds the Gherkin steps to a fresh room per scenario.
func InitializeScenario(s *godog.ScenarioContext) {
	w := &chatWorld{}
	s.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})
	s.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		w.shutdown()
		return ctx, nil
	})

	s.Step(`^a member "([^"]*)" is registered$`, w.aMemberIsRegistered)
	s.Step(`^"([^"]*)" connects to the chat room$`, w.connectsToTheChatRoom)
	s.Step(`^"([^"]*)" connects to the chat room again$`, w.connectsAgain)
	s.Step(`^"([^"]*)" is told that "([^"]*)" joined$`, w.isToldJoined)
	s.Step(`^"([^"]*)" is told that "([^"]*)" left$`, w.isToldLeft)
	s.Step(`^"([^"]*)" sends "([^"]*)"$`, w.sendsMessage)
	s.Step(`^"([^"]*)" sends (\d+) messages in a burst$`, w.sendsBurst)
	s.Step(`^"([^"]*)" receives the message "([^"]*)"$`, w.receivesMessage)
	s.Step(`^"([^"]*)" receives (\d+) messages$`, w.receivesCount)
	s.Step(`^"([^"]*)" is told to slow down$`, w.isToldToSlowDown)
	s.Step(`^"([^"]*)" disconnects$`, w.disconnects)
	s.Step(`^"([^"]*)" closes the extra tab$`, w.closesExtraTab)
	s.Step(`^"([^"]*)" hears no further join announcement$`, w.hearsNoJoin)
	s.Step(`^"([^"]*)" hears no leave announcement$`, w.hearsNoLeave)
}

type chatWorld struct {
	ctl       *chatApp.SessionController
	registry  *chatApp.Registry
	directory *stubDirectory

	mu    sync.Mutex
	conns map[string][]*wsStub
	wg    sync.WaitGroup
}

func (w *chatWorld) reset() {
	w.registry = chatApp.NewRegistry()
	hub := chatApp.NewHub(w.registry)
	w.directory = &stubDirectory{members: map[string]*chatApp.ChatMember{}}
	w.ctl = chatApp.NewSessionController(hub,
		chatRepo.NewMemoryPresenceStore(),
		chatRepo.NewMemoryRateLimiter(5*time.Second, 5),
		&memMessages{},
		w.directory,
		chatApp.SessionConfig{HeartbeatInterval: time.Minute, HeartbeatGrace: 2},
	)
	w.conns = map[string][]*wsStub{}
}

func (w *chatWorld) shutdown() {
	w.mu.Lock()
	for _, tabs := range w.conns {
		for _, c := range tabs {
			c.Close()
		}
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *chatWorld) aMemberIsRegistered(username string) error {
	id := "member-" + username
	w.directory.members[id] = &chatApp.ChatMember{ID: id, Username: username, Active: true}
	return nil
}

func (w *chatWorld) connectsToTheChatRoom(username string) error {
	id := "member-" + username
	if _, ok := w.directory.members[id]; !ok {
		return fmt.Errorf("member %s is not registered", username)
	}
	conn := newWsStub()
	w.mu.Lock()
	w.conns[username] = append(w.conns[username], conn)
	tabs := len(w.conns[username])
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.ctl.Handle(conn, id)
	}()

	return waitFor(func() bool { return w.registry.CountFor(id) >= tabs })
}

func (w *chatWorld) connectsAgain(username string) error {
	return w.connectsToTheChatRoom(username)
}

func (w *chatWorld) tab(username string, i int) (*wsStub, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	tabs := w.conns[username]
	if i >= len(tabs) {
		return nil, fmt.Errorf("%s has no connection %d", username, i)
	}
	return tabs[i], nil
}

func (w *chatWorld) isToldJoined(listener, joined string) error {
	conn, err := w.tab(listener, 0)
	if err != nil {
		return err
	}
	return waitFor(func() bool {
		return conn.countPresence(domain.EventUserJoined, "member-"+joined) > 0
	})
}

func (w *chatWorld) isToldLeft(listener, left string) error {
	conn, err := w.tab(listener, 0)
	if err != nil {
		return err
	}
	return waitFor(func() bool {
		return conn.countPresence(domain.EventUserLeft, "member-"+left) > 0
	})
}

func (w *chatWorld) sendsMessage(username, content string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	frame, _ := json.Marshal(domain.Envelope{Event: domain.EventSendMessage,
		Data: json.RawMessage(fmt.Sprintf(`{"content":%q}`, content))})
	conn.push(frame)
	return nil
}

func (w *chatWorld) sendsBurst(username string, n int) error {
	for i := 0; i < n; i++ {
		if err := w.sendsMessage(username, fmt.Sprintf("burst %d", i)); err != nil {
			return err
		}
	}
	return nil
}

func (w *chatWorld) receivesMessage(username, content string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	return waitFor(func() bool { return conn.hasMessage(content) })
}

func (w *chatWorld) receivesCount(username string, n int) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	return waitFor(func() bool { return conn.countEvents(domain.EventNewMessage) == n })
}

func (w *chatWorld) isToldToSlowDown(username string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	return waitFor(func() bool { return conn.countEvents(domain.EventError) > 0 })
}

func (w *chatWorld) disconnects(username string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	conn.Close()
	return waitFor(func() bool { return w.registry.CountFor("member-"+username) == 0 })
}

func (w *chatWorld) closesExtraTab(username string) error {
	conn, err := w.tab(username, 1)
	if err != nil {
		return err
	}
	conn.Close()
	return waitFor(func() bool { return w.registry.CountFor("member-"+username) == 1 })
}

func (w *chatWorld) hearsNoJoin(username string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	// settle, then count: one join per distinct member only
	time.Sleep(50 * time.Millisecond)
	if n := conn.countEvents(domain.EventUserJoined); n > 2 {
		return fmt.Errorf("expected at most 2 join announcements, heard %d", n)
	}
	return nil
}

func (w *chatWorld) hearsNoLeave(username string) error {
	conn, err := w.tab(username, 0)
	if err != nil {
		return err
	}
	time.Sleep(50 * time.Millisecond)
	if n := conn.countEvents(domain.EventUserLeft); n != 0 {
		return fmt.Errorf("expected no leave announcement, heard %d", n)
	}
	return nil
}

func waitFor(cond func() bool) error {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return errors.New("condition not met within deadline")
}

// stubDirectory answers auth lookups from the registered members table.
type stubDirectory struct {
	members map[string]*chatApp.ChatMember
}

func (d *stubDirectory) Lookup(_ context.Context, memberID string) (*chatApp.ChatMember, error) {
	m, ok := d.members[memberID]
	if !ok {
		return nil, errors.New("no member found with given criteria")
	}
	return m, nil
}

// memMessages is an in memory MessageUseCase, enough to drive the room.
type memMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (m *memMessages) Create(_ context.Context, memberID, username, content string) (*domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		UserID:    memberID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	return &msg, nil
}

func (m *memMessages) ListMessages(_ context.Context, limit int, _ *time.Time) (*domain.MessagePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, len(m.msgs))
	copy(out, m.msgs)
	return &domain.MessagePage{Messages: out}, nil
}

func (m *memMessages) Edit(_ context.Context, messageID, memberID, content string) (*domain.Message, error) {
	return nil, domain.ErrMessageNotFound
}

func (m *memMessages) SoftDelete(_ context.Context, messageID, memberID string) (*domain.Message, error) {
	return nil, domain.ErrMessageNotFound
}

// wsStub is an in memory websocket for the scenarios.
type wsStub struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	frames [][]byte
}

func newWsStub() *wsStub {
	return &wsStub{in: make(chan []byte, 32), closed: make(chan struct{})}
}

func (s *wsStub) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-s.in:
		return websocket.TextMessage, frame, nil
	case <-s.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (s *wsStub) WriteMessage(messageType int, data []byte) error {
	select {
	case <-s.closed:
		return errors.New("connection closed")
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, data)
	return nil
}

func (s *wsStub) SetWriteDeadline(time.Time) error { return nil }

func (s *wsStub) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *wsStub) push(frame []byte) {
	select {
	case s.in <- frame:
	case <-s.closed:
	}
}

func (s *wsStub) events() []domain.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Envelope, 0, len(s.frames))
	for _, frame := range s.frames {
		var env domain.Envelope
		if json.Unmarshal(frame, &env) == nil {
			out = append(out, env)
		}
	}
	return out
}

func (s *wsStub) countEvents(event string) int {
	n := 0
	for _, env := range s.events() {
		if env.Event == event {
			n++
		}
	}
	return n
}

func (s *wsStub) countPresence(event, memberID string) int {
	n := 0
	for _, env := range s.events() {
		if env.Event != event {
			continue
		}
		var p domain.PresencePayload
		if json.Unmarshal(env.Data, &p) == nil && p.UserID == memberID {
			n++
		}
	}
	return n
}

func (s *wsStub) hasMessage(content string) bool {
	for _, env := range s.events() {
		if env.Event != domain.EventNewMessage {
			continue
		}
		var p domain.NewMessagePayload
		if json.Unmarshal(env.Data, &p) == nil && p.Content == content {
			return true
		}
	}
	return false
}
