package domain

import (
	"strings"
	"time"
)

// Participant is a registered quest player.
type Participant struct {
	ID            string // chat platform user id
	DisplayName   string
	CharacterName string
	CommunityID   string
	Realm         string
	Faction       string
	Level         int
	StartedAt     time.Time
	AvatarURL     string
	// TimeToComplete is the final score in seconds; nil until the last level is solved.
	TimeToComplete *int64
}

// Completed reports whether the participant has finished the final level.
func (p Participant) Completed() bool {
	return p.TimeToComplete != nil
}

// Question is a single quest step keyed by level.
type Question struct {
	Level        int      `json:"level" yaml:"level"`
	Text         string   `json:"text" yaml:"text"`
	Answers      []string `json:"answers" yaml:"answers"`
	CompleteText string   `json:"completeText" yaml:"complete_text"`
	Hint         string   `json:"hint" yaml:"hint"`
}

// Accepts compares the submitted text against every accepted variant, ignoring case.
func (q Question) Accepts(answer string) bool {
	for _, v := range q.Answers {
		if strings.EqualFold(v, answer) {
			return true
		}
	}
	return false
}

// AnswerAttempt is an append-only record of a submitted answer.
type AnswerAttempt struct {
	ID            string
	ParticipantID string
	Level         int
	Answer        string
	Correct       bool
	GivenAt       time.Time
}

// AnswerResult is the outcome of CheckAnswer.
type AnswerResult struct {
	Correct bool
	Message string // empty on a wrong answer
}

// Stage is a registration step.
type Stage int

const (
	StageCharacterSelection Stage = iota + 1
	StageGuildSelection
	StageRealmSelection
	StageFactionSelection
)

func (s Stage) String() string {
	switch s {
	case StageCharacterSelection:
		return "character_selection"
	case StageGuildSelection:
		return "guild_selection"
	case StageRealmSelection:
		return "realm_selection"
	case StageFactionSelection:
		return "faction_selection"
	default:
		return "unknown"
	}
}

// AwaitsReaction reports whether the stage is completed by an emoji reaction.
func (s Stage) AwaitsReaction() bool {
	return s == StageGuildSelection || s == StageFactionSelection
}

// RegistrationSession is the transient, in-memory state of a participant mid-registration.
type RegistrationSession struct {
	ParticipantID string
	Stage         Stage
	DisplayName   string
	AvatarURL     string
	CharacterName string
	Community     Community
	Realm         string
	Faction       string
}

// MessageEvent is an inbound free-text message.
type MessageEvent struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl"`
	Text          string `json:"text"`
	CommunityID   string `json:"communityId"`
}

// ReactionEvent is an inbound emoji reaction.
type ReactionEvent struct {
	ParticipantID string `json:"participantId"`
	Emoji         string `json:"emoji"`
}

// EmojiRef names a selectable emoji hosted by a community.
type EmojiRef struct {
	CommunityID string `json:"communityId"`
	Emoji       string `json:"emoji"`
}

// Reply is what the chat adapter should send back to the participant.
// When Choices is non-empty a reaction listener is armed for ReactionWindow.
type Reply struct {
	Text           string        `json:"text"`
	Choices        []EmojiRef    `json:"choices,omitempty"`
	ReactionWindow time.Duration `json:"-"`
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Choices) == 0
}
