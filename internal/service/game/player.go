package game

import "sync/atomic"

// Player roles.
const (
	ROLE_UNSET    = ""
	ROLE_CIVILIAN = "CIVILIAN"
	ROLE_SPY      = "SPY"
	ROLE_BLANK    = "BLANK"
)

// Player is one participant's full record. It survives disconnection: the
// transport handle is dropped but role, word, and alive status stay so a
// reconnect resumes mid-game without loss.
type Player struct {
	ID     int64
	Name   string
	IsHost bool
	Role   string
	Word   string
	Alive  bool
	// Nil while disconnected.
	Conn Conn
}

func (p *Player) Connected() bool {
	return p.Conn != nil
}

// Process-wide counter; ids never coordinate across rooms.
var nextPlayerID atomic.Int64

func NewPlayerID() int64 {
	return nextPlayerID.Add(1)
}
