package models

// Player is one participant in a session, human or automated.
type Player struct {
	ID      string
	Name    string
	Role    Role
	IsHuman bool
	IsAlive bool
}

// Party returns the player's team, derived from the role on every read.
func (p *Player) Party() Party {
	return PartyOf(p.Role)
}

// IsFascistTeam reports whether the player sits with the fascists
// (including hitler).
func (p *Player) IsFascistTeam() bool {
	return p.Party() == PartyFascist
}

// IsHitler reports whether the player holds the hitler role.
func (p *Player) IsHitler() bool {
	return p.Role == RoleHitler
}
