package game

import "encoding/json"

// Client-sent message types.
const (
	MSG_CREATE_ROOM        = "CREATE_ROOM"
	MSG_JOIN_ROOM          = "JOIN_ROOM"
	MSG_RECONNECT          = "RECONNECT"
	MSG_START_GAME         = "START_GAME"
	MSG_SUBMIT_DESCRIPTION = "SUBMIT_DESCRIPTION"
	MSG_SUBMIT_VOTE        = "SUBMIT_VOTE"
	MSG_NEXT_ROUND         = "NEXT_ROUND"
	MSG_RESTART_GAME       = "RESTART_GAME"
	MSG_UPDATE_SETTINGS    = "UPDATE_SETTINGS"
	MSG_FORCE_NEXT_PHASE   = "FORCE_NEXT_PHASE"
	MSG_LEAVE_ROOM         = "LEAVE_ROOM"
)

// Server-sent message types.
const (
	MSG_ROOM_CREATED       = "ROOM_CREATED"
	MSG_ROOM_JOINED        = "ROOM_JOINED"
	MSG_RECONNECTED        = "RECONNECTED"
	MSG_PLAYER_JOINED      = "PLAYER_JOINED"
	MSG_PLAYER_LEFT        = "PLAYER_LEFT"
	MSG_SETTINGS_UPDATED   = "SETTINGS_UPDATED"
	MSG_GAME_STARTED       = "GAME_STARTED"
	MSG_PHASE_CHANGE       = "PHASE_CHANGE"
	MSG_DESCRIPTION_UPDATE = "DESCRIPTION_UPDATE"
	MSG_VOTE_UPDATE        = "VOTE_UPDATE"
	MSG_VOTE_RESULT        = "VOTE_RESULT"
	MSG_GAME_OVER          = "GAME_OVER"
	MSG_ERROR              = "ERROR"
)

// Envelope is an inbound unit as it arrives off the wire; the payload stays
// raw until the verb handler knows which struct to decode into.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is an outbound unit.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func WrapMessage(msgType string, data any) Message {
	return Message{
		Type: msgType,
		Data: data,
	}
}

func WrapError(err *Error) Message {
	return Message{
		Type: MSG_ERROR,
		Data: ErrorPayload{
			Kind:    err.Kind,
			Message: err.Message,
		},
	}
}

// Conn is the send capability a transport handle gives a participant. A
// failed send must not affect delivery to anyone else; disconnection is
// signalled by the transport's own liveness path, never inferred here.
type Conn interface {
	Send(msg Message) error
}

// Inbound payloads.

type CreateRoomPayload struct {
	PlayerName string `json:"playerName"`
	RoomCode   string `json:"roomCode,omitempty"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type ReconnectPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID int64  `json:"playerId"`
}

type SubmitDescriptionPayload struct {
	Text string `json:"text"`
}

type SubmitVotePayload struct {
	TargetID int64 `json:"targetId"`
}

// Pointer fields distinguish "absent" from zero; absent settings keep their
// current value.
type UpdateSettingsPayload struct {
	MaxPlayers *int    `json:"maxPlayers,omitempty"`
	SpyCount   *int    `json:"spyCount,omitempty"`
	BlankCount *int    `json:"blankCount,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
}

// Outbound payloads.

type PlayerInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Alive  bool   `json:"alive"`
	// Only revealed once the game is over.
	Role string `json:"role,omitempty"`
}

type SpeakerInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type RoomJoinedPayload struct {
	RoomCode string       `json:"roomCode"`
	PlayerID int64        `json:"playerId"`
	Players  []PlayerInfo `json:"players"`
	Settings Settings     `json:"settings"`
}

type ReconnectedPayload struct {
	RoomCode       string       `json:"roomCode"`
	PlayerID       int64        `json:"playerId"`
	Players        []PlayerInfo `json:"players"`
	Settings       Settings     `json:"settings"`
	Phase          string       `json:"phase"`
	Round          int          `json:"round"`
	Word           string       `json:"word,omitempty"`
	Role           string       `json:"role,omitempty"`
	IsHost         bool         `json:"isHost"`
	CurrentSpeaker *SpeakerInfo `json:"currentSpeaker,omitempty"`
}

type PlayerJoinedPayload struct {
	Player      PlayerInfo   `json:"player"`
	Players     []PlayerInfo `json:"players"`
	Reconnected bool         `json:"reconnected,omitempty"`
}

type PlayerLeftPayload struct {
	PlayerID     int64        `json:"playerId"`
	Name         string       `json:"name"`
	Disconnected bool         `json:"disconnected,omitempty"`
	Players      []PlayerInfo `json:"players"`
}

type SettingsUpdatedPayload struct {
	Settings Settings `json:"settings"`
}

type GameStartedPayload struct {
	// Per-recipient secret; never part of a broadcast.
	Word     string       `json:"word,omitempty"`
	Role     string       `json:"role"`
	Players  []PlayerInfo `json:"players"`
	Settings Settings     `json:"settings"`
}

type PhaseChangePayload struct {
	Phase           string        `json:"phase"`
	Round           int           `json:"round"`
	SpeakingOrder   []SpeakerInfo `json:"speakingOrder,omitempty"`
	CurrentSpeaker  *SpeakerInfo  `json:"currentSpeaker,omitempty"`
	AlivePlayers    []SpeakerInfo `json:"alivePlayers,omitempty"`
	VoteablePlayers []SpeakerInfo `json:"voteablePlayers,omitempty"`
	IsTiebreak      bool          `json:"isTiebreak,omitempty"`
	TiebreakPlayers []string      `json:"tiebreakPlayers,omitempty"`
	CanNextRound    bool          `json:"canNextRound,omitempty"`
	Players         []PlayerInfo  `json:"players,omitempty"`
	Settings        *Settings     `json:"settings,omitempty"`
}

type DescriptionUpdatePayload struct {
	PlayerID    int64        `json:"playerId,omitempty"`
	PlayerName  string       `json:"playerName,omitempty"`
	Text        string       `json:"text,omitempty"`
	Submitted   int          `json:"submitted"`
	Total       int          `json:"total"`
	NextSpeaker *SpeakerInfo `json:"nextSpeaker,omitempty"`
	IsLast      bool         `json:"isLast"`
	Skipped     bool         `json:"skipped,omitempty"`
	Round       int          `json:"round"`
}

type VoteUpdatePayload struct {
	Submitted int `json:"submitted"`
	Total     int `json:"total"`
}

type EliminatedInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type VoteResultPayload struct {
	Eliminated      *EliminatedInfo   `json:"eliminated"`
	Tie             bool              `json:"tie"`
	VoteDetails     map[string]string `json:"voteDetails"`
	Round           int               `json:"round"`
	TiebreakPlayers []string          `json:"tiebreakPlayers,omitempty"`
}

type RoleReveal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Word  string `json:"word,omitempty"`
	Alive bool   `json:"alive"`
}

type GameOverPayload struct {
	Winner       string       `json:"winner"`
	Reason       string       `json:"reason"`
	Roles        []RoleReveal `json:"roles"`
	CivilianWord string       `json:"civilianWord"`
	SpyWord      string       `json:"spyWord"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
