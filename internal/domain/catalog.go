package domain

import "strings"

// Community is a chat guild a participant can come from.
type Community struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
}

// Faction is a selectable in-game faction.
type Faction struct {
	Name  string `yaml:"name"`
	Emoji string `yaml:"emoji"`
}

// Catalog is the static community/realm/faction configuration.
type Catalog struct {
	communities []Community
	byEmoji     map[string]Community
	factions    []Faction
	realms      map[string]struct{}
}

func NewCatalog(communities []Community, realms []string, factions []Faction) *Catalog {
	c := &Catalog{
		communities: communities,
		byEmoji:     make(map[string]Community, len(communities)),
		factions:    factions,
		realms:      make(map[string]struct{}, len(realms)),
	}
	for _, cm := range communities {
		c.byEmoji[cm.Emoji] = cm
	}
	for _, r := range realms {
		c.realms[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return c
}

func (c *Catalog) Communities() []Community {
	out := make([]Community, len(c.communities))
	copy(out, c.communities)
	return out
}

func (c *Catalog) CommunityByEmoji(emoji string) (Community, bool) {
	cm, ok := c.byEmoji[emoji]
	return cm, ok
}

func (c *Catalog) Factions() []Faction {
	out := make([]Faction, len(c.factions))
	copy(out, c.factions)
	return out
}

func (c *Catalog) FactionByEmoji(emoji string) (Faction, bool) {
	for _, f := range c.factions {
		if f.Emoji == emoji {
			return f, true
		}
	}
	return Faction{}, false
}

// IsValidRealm matches against the allow-list ignoring case.
func (c *Catalog) IsValidRealm(name string) bool {
	_, ok := c.realms[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
