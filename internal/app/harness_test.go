package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quest-bot/internal/app"
	"quest-bot/internal/domain"
	"quest-bot/internal/infra/memory"
)

var errBridgeDown = errors.New("bridge down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	to   []string
	text string
}

type recordingNotifier struct {
	mu           sync.Mutex
	direct       []sentMessage
	participants []sentMessage
	channels     []string
	failChannels bool
	// observe, when set, sees every channel broadcast before it is recorded.
	observe func(text string)
}

func (n *recordingNotifier) DirectMessage(_ context.Context, participantID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct = append(n.direct, sentMessage{to: []string{participantID}, text: text})
	return nil
}

func (n *recordingNotifier) BroadcastToParticipants(_ context.Context, participantIDs []string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.participants = append(n.participants, sentMessage{to: append([]string(nil), participantIDs...), text: text})
	return nil
}

func (n *recordingNotifier) BroadcastToChannels(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failChannels {
		return errBridgeDown
	}
	if n.observe != nil {
		n.observe(text)
	}
	n.channels = append(n.channels, text)
	return nil
}

func (n *recordingNotifier) setFailChannels(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failChannels = v
}

func (n *recordingNotifier) channelTexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.channels...)
}

func (n *recordingNotifier) participantBroadcasts() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.participants...)
}

func (n *recordingNotifier) directTo(participantID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.direct {
		if m.to[0] == participantID {
			out = append(out, m.text)
		}
	}
	return out
}

// flakyParticipants fails Save while failSave is set.
type flakyParticipants struct {
	*memory.ParticipantStore
	mu       sync.Mutex
	failSave bool
}

func (s *flakyParticipants) Save(ctx context.Context, p domain.Participant) error {
	s.mu.Lock()
	fail := s.failSave
	s.mu.Unlock()
	if fail {
		return errors.New("database unavailable")
	}
	return s.ParticipantStore.Save(ctx, p)
}

func (s *flakyParticipants) setFailSave(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = v
}

type fixture struct {
	clock        *fakeClock
	notifier     *recordingNotifier
	participants *flakyParticipants
	attempts     *memory.AttemptLedger
	hints        *memory.HintService
	sessions     *memory.SessionStore
	listeners    *app.ListenerRegistry
	registration *app.RegistrationService
	game         *app.GameService
	router       *app.Router
}

func newFixture(t *testing.T, questions []domain.Question, firstQuestionDelay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		clock:        newFakeClock(),
		notifier:     &recordingNotifier{},
		participants: &flakyParticipants{ParticipantStore: memory.NewParticipantStore()},
		attempts:     memory.NewAttemptLedger(),
		hints:        memory.NewHintService(5 * time.Minute),
		sessions:     memory.NewSessionStore(),
	}
	f.listeners = app.NewListenerRegistryWithClock(f.clock.Now)
	bank := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), time.Minute)
	f.registration = app.NewRegistrationServiceWithClock(f.sessions, f.participants, bank, f.notifier, testCatalog(), f.listeners,
		app.RegistrationOptions{EmojiHost: "emoji-guild", FirstQuestionDelay: firstQuestionDelay}, f.clock.Now)
	t.Cleanup(f.registration.Close)
	f.game = app.NewGameServiceWithClock(f.participants, bank, f.attempts, f.notifier, f.hints,
		app.GameOptions{TotalLevels: len(questions), HintPenalty: 5 * time.Minute}, f.clock.Now)
	f.router = app.NewRouter(f.registration, f.game, f.participants)
	return f
}

func testCatalog() *domain.Catalog {
	return domain.NewCatalog(
		[]domain.Community{
			{ID: "g-mage", Name: "Hall of the Guardian", Emoji: "mage"},
			{ID: "g-shaman", Name: "The Maelstrom", Emoji: "shaman"},
			{ID: "g-horde-rp", Name: "Horde-RP", Emoji: "hordecrest"},
		},
		[]string{"Gordunni", "Soulflayer", "Howling Fjord"},
		[]domain.Faction{{Name: "Alliance", Emoji: "alliance"}, {Name: "Horde", Emoji: "horde"}},
	)
}

func threeLevels() []domain.Question {
	return []domain.Question{
		{Level: 1, Text: "Q1", Answers: []string{"one"}, CompleteText: "Level one cleared.", Hint: "Count to one."},
		{Level: 2, Text: "Q2", Answers: []string{"two", "II"}, CompleteText: "Level two cleared."},
		{Level: 3, Text: "Q3", Answers: []string{"three"}, CompleteText: "Last step cleared.", Hint: "After two."},
	}
}

func (f *fixture) say(t *testing.T, id, text string) domain.Reply {
	t.Helper()
	reply, err := f.router.HandleMessage(context.Background(), domain.MessageEvent{ParticipantID: id, DisplayName: id + "#0001", Text: text})
	if err != nil {
		t.Fatalf("message %q from %s: %v", text, id, err)
	}
	return reply
}

func (f *fixture) react(t *testing.T, id, emoji string) {
	t.Helper()
	if err := f.router.HandleReaction(context.Background(), domain.ReactionEvent{ParticipantID: id, Emoji: emoji}); err != nil {
		t.Fatalf("reaction %q from %s: %v", emoji, id, err)
	}
}

// register walks id through the whole registration flow.
func (f *fixture) register(t *testing.T, id string) {
	t.Helper()
	f.say(t, id, "hi")
	f.say(t, id, "Char-"+id)
	f.react(t, id, "shaman")
	f.say(t, id, "Soulflayer")
	f.react(t, id, "horde")
	if _, err := f.participants.Get(context.Background(), id); err != nil {
		t.Fatalf("%s not registered: %v", id, err)
	}
}

func (f *fixture) participant(t *testing.T, id string) domain.Participant {
	t.Helper()
	p, err := f.participants.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("load %s: %v", id, err)
	}
	return p
}

// finish answers every level for id.
func (f *fixture) finish(t *testing.T, id string) {
	t.Helper()
	for _, answer := range []string{"one", "two", "three"} {
		f.say(t, id, answer)
	}
	if !f.participant(t, id).Completed() {
		t.Fatalf("%s did not complete", id)
	}
}
