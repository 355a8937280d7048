package app

import (
	"fmt"
	"strings"

	"quest-bot/internal/domain"
)

const (
	msgCharacterPrompt = "Greetings, traveller! Please introduce yourself: what is the name of your main character?"
	msgGuildPrompt     = "Please tell us where you came from: react with the icon of your class hall."
	msgRealmPrompt     = "Great! Running the quest needs a little preparation on our side. Please type the name of your realm and we will be ready to start in a few minutes.\n\n" +
		"Our resources are limited and we cannot run the quest on every realm. If yours is not on the list, name any other realm where you have an alt, or create a trial character on Gordunni (Alliance) or Soulflayer (Horde). That is enough to complete the quest."
	msgRealmRejected = "Sorry, this realm is not available for the quest. Name any other realm where you have an alt, or create a trial character on Gordunni (Alliance) or Soulflayer (Horde). That is enough to complete the quest."
	msgFactionPrompt = "Good. Now please pick the faction you play for."
	msgWelcome       = "Congratulations, you are registered! Your first quest arrives within a minute. Meanwhile, the rules:\n" +
		"1) You may (and should!) use search engines, Wowhead and WoWProgress.\n" +
		"2) Locations and items come from the game client; look up translations if you play another locale.\n" +
		"3) Do not forget your previous answers! Quests can be connected.\n" +
		"4) Once three winners are known, hints become available to everyone else. The bot will let you know."
	msgHintsLocked = "Hints are not available yet. They unlock once three winners have finished the quest."
	msgNoHint      = "There is no hint for this step."
	msgFinished    = "You have already finished the quest. Thank you for playing!"
	msgHintsOpen   = "We have our three winners and the prizes are gone, but the quest goes on: everyone who finishes still gets a place in the time ranking. " +
		"Hints are now available, send %s to get one. Each hint adds %s to your final time."
)

func newParticipantText(p domain.Participant, community domain.Community) string {
	return fmt.Sprintf("A new participant has joined:\n**Character name**: %s\n**Discord name**: %s\n**Discord server**: %s\n**Realm**: %s\n**Faction**: %s",
		p.CharacterName, p.DisplayName, community.Name, p.Realm, p.Faction)
}

func levelUpText(p domain.Participant, rank int) string {
	return fmt.Sprintf("%s (%s) is #%d to clear level %d!", p.CharacterName, p.DisplayName, rank, p.Level)
}

func winnerText(p domain.Participant, rank int) string {
	return fmt.Sprintf("We have winner #%d: %s (%s) finished the quest in %s!", rank, p.CharacterName, p.DisplayName, formatSeconds(derefSeconds(p.TimeToComplete)))
}

func finishedText(p domain.Participant) string {
	return fmt.Sprintf("That was the final step! Your time: %s.", formatSeconds(derefSeconds(p.TimeToComplete)))
}

func hintText(q domain.Question, penalty int64) string {
	if penalty == 0 {
		return "Hint: " + q.Hint
	}
	return fmt.Sprintf("Hint: %s\n(+%s to your time)", q.Hint, formatSeconds(penalty))
}

func joinMessages(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func formatSeconds(total int64) string {
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

func derefSeconds(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
