package domain

import "testing"

func TestQuestionAcceptsAnyVariant(t *testing.T) {
	q := Question{Answers: []string{"Durotar", "Дуротар"}}
	for _, answer := range []string{"durotar", "DUROTAR", "дуротар"} {
		if !q.Accepts(answer) {
			t.Fatalf("expected %q to be accepted", answer)
		}
	}
	if q.Accepts("Durotar!") {
		t.Fatalf("expected punctuation to matter")
	}
}

func TestStageReactionStages(t *testing.T) {
	cases := map[Stage]bool{
		StageCharacterSelection: false,
		StageGuildSelection:     true,
		StageRealmSelection:     false,
		StageFactionSelection:   true,
	}
	for stage, want := range cases {
		if got := stage.AwaitsReaction(); got != want {
			t.Fatalf("%s: expected %v, got %v", stage, want, got)
		}
	}
	if Stage(0).String() != "unknown" {
		t.Fatalf("expected unknown for zero stage")
	}
}

func TestCatalogLookups(t *testing.T) {
	c := NewCatalog(
		[]Community{{ID: "g1", Name: "Hall of the Guardian", Emoji: "mage"}},
		[]string{" Gordunni ", "Soulflayer"},
		[]Faction{{Name: "Horde", Emoji: "horde"}},
	)
	if !c.IsValidRealm("gordunni") || !c.IsValidRealm("SOULFLAYER ") || c.IsValidRealm("Ravencrest") {
		t.Fatalf("unexpected realm matching")
	}
	if cm, ok := c.CommunityByEmoji("mage"); !ok || cm.ID != "g1" {
		t.Fatalf("expected mage community, got %+v", cm)
	}
	if _, ok := c.FactionByEmoji("alliance"); ok {
		t.Fatalf("expected unknown faction emoji")
	}
	list := c.Communities()
	list[0].Name = "changed"
	if c.Communities()[0].Name != "Hall of the Guardian" {
		t.Fatalf("expected Communities to return a copy")
	}
}
