package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quest-bot/internal/domain"
)

// RegistrationOptions tunes the registration flow.
type RegistrationOptions struct {
	// EmojiHost is the community that owns the custom emoji offered as choices.
	EmojiHost          string
	ReactionWindow     time.Duration
	FirstQuestionDelay time.Duration
}

// RegistrationService walks new participants through character, guild,
// realm and faction selection. Callers serialize calls per participant.
type RegistrationService struct {
	sessions     SessionRepository
	participants ParticipantStore
	questions    QuestionBank
	notifier     NotificationGateway
	catalog      Catalog
	listeners    *ListenerRegistry
	opts         RegistrationOptions
	now          func() time.Time

	timersMu sync.Mutex
	timers   map[string]*time.Timer
	closed   bool
}

func NewRegistrationService(
	sessions SessionRepository,
	participants ParticipantStore,
	questions QuestionBank,
	notifier NotificationGateway,
	catalog Catalog,
	listeners *ListenerRegistry,
	opts RegistrationOptions,
) *RegistrationService {
	return NewRegistrationServiceWithClock(sessions, participants, questions, notifier, catalog, listeners, opts, time.Now)
}

// NewRegistrationServiceWithClock is test-only for deterministic timestamps.
func NewRegistrationServiceWithClock(
	sessions SessionRepository,
	participants ParticipantStore,
	questions QuestionBank,
	notifier NotificationGateway,
	catalog Catalog,
	listeners *ListenerRegistry,
	opts RegistrationOptions,
	now func() time.Time,
) *RegistrationService {
	if opts.ReactionWindow <= 0 {
		opts.ReactionWindow = 150 * time.Second
	}
	if opts.FirstQuestionDelay <= 0 {
		opts.FirstQuestionDelay = time.Minute
	}
	return &RegistrationService{
		sessions:     sessions,
		participants: participants,
		questions:    questions,
		notifier:     notifier,
		catalog:      catalog,
		listeners:    listeners,
		opts:         opts,
		now:          now,
		timers:       make(map[string]*time.Timer),
	}
}

// InProgress reports whether the participant has an open registration session.
func (r *RegistrationService) InProgress(participantID string) bool {
	_, ok := r.sessions.Get(participantID)
	return ok
}

// Stage returns the participant's current registration stage.
func (r *RegistrationService) Stage(participantID string) (domain.Stage, bool) {
	s, ok := r.sessions.Get(participantID)
	if !ok {
		return 0, false
	}
	return s.Stage, true
}

// HandleMessage advances registration on a free-text message.
func (r *RegistrationService) HandleMessage(_ context.Context, ev domain.MessageEvent) (domain.Reply, error) {
	session, ok := r.sessions.Get(ev.ParticipantID)
	if !ok {
		return r.start(ev), nil
	}

	text := strings.TrimSpace(ev.Text)
	switch session.Stage {
	case domain.StageCharacterSelection:
		if text == "" {
			return domain.Reply{Text: msgCharacterPrompt}, nil
		}
		session.CharacterName = text
		session.Stage = domain.StageGuildSelection
		r.sessions.Put(session)
		return r.guildPrompt(session.ParticipantID), nil
	case domain.StageGuildSelection:
		return r.guildPrompt(session.ParticipantID), nil
	case domain.StageRealmSelection:
		return r.selectRealm(session, text), nil
	case domain.StageFactionSelection:
		return r.factionPrompt(session.ParticipantID), nil
	}
	return domain.Reply{}, nil
}

// HandleReaction routes a reaction to the participant's armed listener, if any.
func (r *RegistrationService) HandleReaction(ctx context.Context, ev domain.ReactionEvent) error {
	_, err := r.listeners.Fire(ctx, ev.ParticipantID, ev.Emoji)
	return err
}

// Close cancels pending listeners and first-question deliveries.
func (r *RegistrationService) Close() {
	r.listeners.Close()
	r.timersMu.Lock()
	defer r.timersMu.Unlock()
	r.closed = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

func (r *RegistrationService) start(ev domain.MessageEvent) domain.Reply {
	r.sessions.Put(domain.RegistrationSession{
		ParticipantID: ev.ParticipantID,
		Stage:         domain.StageCharacterSelection,
		DisplayName:   ev.DisplayName,
		AvatarURL:     ev.AvatarURL,
	})
	return domain.Reply{Text: msgCharacterPrompt}
}

func (r *RegistrationService) guildPrompt(participantID string) domain.Reply {
	communities := r.catalog.Communities()
	choices := make([]domain.EmojiRef, 0, len(communities))
	for _, c := range communities {
		choices = append(choices, domain.EmojiRef{CommunityID: r.opts.EmojiHost, Emoji: c.Emoji})
	}
	r.listeners.Arm(participantID, domain.StageGuildSelection, r.opts.ReactionWindow, func(ctx context.Context, emoji string) (bool, error) {
		return r.selectGuild(ctx, participantID, emoji)
	})
	return domain.Reply{Text: msgGuildPrompt, Choices: choices, ReactionWindow: r.opts.ReactionWindow}
}

func (r *RegistrationService) selectGuild(ctx context.Context, participantID, emoji string) (bool, error) {
	community, ok := r.catalog.CommunityByEmoji(emoji)
	if !ok {
		return false, nil
	}
	session, ok := r.sessions.Get(participantID)
	if !ok || session.Stage != domain.StageGuildSelection {
		return false, nil
	}

	if err := r.notifier.DirectMessage(ctx, participantID, msgRealmPrompt); err != nil {
		return false, fmt.Errorf("send realm prompt: %w", err)
	}
	session.Community = community
	session.Stage = domain.StageRealmSelection
	r.sessions.Put(session)
	return true, nil
}

func (r *RegistrationService) selectRealm(session domain.RegistrationSession, realm string) domain.Reply {
	if !r.catalog.IsValidRealm(realm) {
		return domain.Reply{Text: msgRealmRejected}
	}
	session.Realm = realm
	session.Stage = domain.StageFactionSelection
	r.sessions.Put(session)
	return r.factionPrompt(session.ParticipantID)
}

func (r *RegistrationService) factionPrompt(participantID string) domain.Reply {
	factions := r.catalog.Factions()
	choices := make([]domain.EmojiRef, 0, len(factions))
	for _, f := range factions {
		choices = append(choices, domain.EmojiRef{CommunityID: r.opts.EmojiHost, Emoji: f.Emoji})
	}
	r.listeners.Arm(participantID, domain.StageFactionSelection, r.opts.ReactionWindow, func(ctx context.Context, emoji string) (bool, error) {
		return r.selectFaction(ctx, participantID, emoji)
	})
	return domain.Reply{Text: msgFactionPrompt, Choices: choices, ReactionWindow: r.opts.ReactionWindow}
}

func (r *RegistrationService) selectFaction(ctx context.Context, participantID, emoji string) (bool, error) {
	faction, ok := r.catalog.FactionByEmoji(emoji)
	if !ok {
		return false, nil
	}
	session, ok := r.sessions.Get(participantID)
	if !ok || session.Stage != domain.StageFactionSelection {
		return false, nil
	}
	session.Faction = faction.Name

	p := domain.Participant{
		ID:            session.ParticipantID,
		DisplayName:   session.DisplayName,
		CharacterName: session.CharacterName,
		CommunityID:   session.Community.ID,
		Realm:         session.Realm,
		Faction:       session.Faction,
		Level:         1,
		StartedAt:     r.now(),
		AvatarURL:     session.AvatarURL,
	}
	if err := r.participants.Save(ctx, p); err != nil {
		return false, fmt.Errorf("save participant: %w", err)
	}
	r.sessions.Delete(participantID)
	r.scheduleFirstQuestion(participantID)
	log.Printf("registered participant %s (%s, %s)", p.ID, p.CharacterName, p.Realm)

	// The participant exists from here on; notification failures are reported
	// but do not undo the registration.
	var errs []error
	if err := r.notifier.BroadcastToChannels(ctx, newParticipantText(p, session.Community)); err != nil {
		errs = append(errs, fmt.Errorf("announce participant: %w", err))
	}
	if err := r.notifier.DirectMessage(ctx, participantID, msgWelcome); err != nil {
		errs = append(errs, fmt.Errorf("send welcome: %w", err))
	}
	return true, errors.Join(errs...)
}

func (r *RegistrationService) scheduleFirstQuestion(participantID string) {
	r.timersMu.Lock()
	defer r.timersMu.Unlock()
	if r.closed {
		return
	}
	if t, ok := r.timers[participantID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(r.opts.FirstQuestionDelay, func() {
		r.timersMu.Lock()
		if cur, ok := r.timers[participantID]; !ok || cur != t {
			r.timersMu.Unlock()
			return
		}
		delete(r.timers, participantID)
		r.timersMu.Unlock()
		r.deliverFirstQuestion(participantID)
	})
	r.timers[participantID] = t
}

func (r *RegistrationService) deliverFirstQuestion(participantID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := r.participants.Get(ctx, participantID)
	if err != nil {
		if !errors.Is(err, domain.ErrParticipantNotFound) {
			log.Printf("first question for %s: load participant: %v", participantID, err)
		}
		return
	}
	if p.Completed() {
		return
	}
	q, err := r.questions.Question(ctx, p.Level)
	if err != nil {
		log.Printf("first question for %s: load level %d: %v", participantID, p.Level, err)
		return
	}
	if err := r.notifier.DirectMessage(ctx, participantID, q.Text); err != nil {
		log.Printf("first question for %s: send: %v", participantID, err)
	}
}
