package game

// Machine-readable rejection kinds carried in the ERROR envelope.
const (
	ERR_NAME_REQUIRED      = "NAME_REQUIRED"
	ERR_NAME_TAKEN         = "NAME_TAKEN"
	ERR_CODE_TAKEN         = "CODE_TAKEN"
	ERR_CODE_INVALID       = "CODE_INVALID"
	ERR_NOT_FOUND          = "NOT_FOUND"
	ERR_ALREADY_STARTED    = "ALREADY_STARTED"
	ERR_FULL               = "FULL"
	ERR_RECONNECT_FAILED   = "RECONNECT_FAILED"
	ERR_NOT_IN_ROOM        = "NOT_IN_ROOM"
	ERR_ROOM_GONE          = "ROOM_GONE"
	ERR_NOT_HOST           = "NOT_HOST"
	ERR_WRONG_PHASE        = "WRONG_PHASE"
	ERR_NOT_YOUR_TURN      = "NOT_YOUR_TURN"
	ERR_NOT_ALIVE          = "NOT_ALIVE"
	ERR_ALREADY_VOTED      = "ALREADY_VOTED"
	ERR_BAD_TARGET         = "BAD_TARGET"
	ERR_NOT_ENOUGH_PLAYERS = "NOT_ENOUGH_PLAYERS"
	ERR_BAD_REQUEST        = "BAD_REQUEST"
	ERR_UNKNOWN_TYPE       = "UNKNOWN_TYPE"
	ERR_INTERNAL           = "INTERNAL"
)

// Error is a typed rejection. Every failed operation returns one and leaves
// room state untouched.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
