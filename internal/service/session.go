package service

import (
	"encoding/json"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"undercover-be/internal/service/game"
	"undercover-be/internal/service/words"

	"go.uber.org/zap"
)

// Room codes avoid visually confusable characters (no I, O, 0, 1).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

var customCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,6}$`)

type binding struct {
	roomCode string
	playerID int64
}

// SessionManager owns the registry of active rooms and the connection→
// (room, participant) bindings, routes inbound verbs to the right room, and
// runs the disconnect-grace-period destruction policy. The registry mutex is
// the only state shared across rooms; each room serializes itself.
type SessionManager struct {
	mu            sync.RWMutex
	rooms         map[string]*game.Room
	bindings      map[game.Conn]binding
	destroyTimers map[string]*time.Timer

	gracePeriod   time.Duration
	sweepInterval time.Duration
	source        words.Source

	done chan struct{}
}

func NewSessionManager(gracePeriod, sweepInterval time.Duration, source words.Source) *SessionManager {
	sm := &SessionManager{
		rooms:         make(map[string]*game.Room),
		bindings:      make(map[game.Conn]binding),
		destroyTimers: make(map[string]*time.Timer),
		gracePeriod:   gracePeriod,
		sweepInterval: sweepInterval,
		source:        source,
		done:          make(chan struct{}),
	}

	go sm.sweepLoop()

	return sm
}

func (sm *SessionManager) Close() {
	close(sm.done)
}

// HandleMessage is the single inbound entry point: lifecycle verbs are
// handled here, gameplay verbs are dispatched to the bound room. Every
// rejection produces exactly one ERROR reply to the requester.
func (sm *SessionManager) HandleMessage(conn game.Conn, env game.Envelope) {
	switch env.Type {
	case game.MSG_CREATE_ROOM:
		sm.createRoom(conn, env.Data)
	case game.MSG_JOIN_ROOM:
		sm.joinRoom(conn, env.Data)
	case game.MSG_RECONNECT:
		sm.reconnect(conn, env.Data)
	case game.MSG_LEAVE_ROOM:
		sm.OnExplicitLeave(conn)
	default:
		sm.dispatch(conn, env)
	}
}

func (sm *SessionManager) createRoom(conn game.Conn, data json.RawMessage) {
	var req game.CreateRoomPayload
	if err := json.Unmarshal(data, &req); err != nil {
		sm.reject(conn, game.NewError(game.ERR_BAD_REQUEST, "malformed request"))
		return
	}

	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		sm.reject(conn, game.NewError(game.ERR_NAME_REQUIRED, "a display name is required"))
		return
	}

	custom := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	if custom != "" && !customCodePattern.MatchString(custom) {
		sm.reject(conn, game.NewError(game.ERR_CODE_INVALID, "room codes are 1-6 letters and digits"))
		return
	}

	sm.mu.Lock()

	code := custom
	if code == "" {
		code = sm.generateCodeLocked()
	} else if _, taken := sm.rooms[code]; taken {
		sm.mu.Unlock()
		sm.reject(conn, game.NewError(game.ERR_CODE_TAKEN, "that room code is taken"))
		return
	}

	room := game.NewRoom(code, sm.source)
	sm.rooms[code] = room

	sm.mu.Unlock()

	// Cannot fail: a fresh lobby is never full and the name is unique in it.
	snapshot, gerr := room.AddPlayer(conn, name, true)
	if gerr != nil {
		sm.destroyRoom(code)
		sm.reject(conn, gerr)
		return
	}

	sm.bind(conn, code, snapshot.PlayerID)

	sm.send(conn, game.WrapMessage(game.MSG_ROOM_CREATED, snapshot))

	zap.L().Info(
		"room created",
		zap.String("room_code", code),
		zap.Int64("host_id", snapshot.PlayerID),
		zap.String("host_name", name),
	)
}

func (sm *SessionManager) joinRoom(conn game.Conn, data json.RawMessage) {
	var req game.JoinRoomPayload
	if err := json.Unmarshal(data, &req); err != nil {
		sm.reject(conn, game.NewError(game.ERR_BAD_REQUEST, "malformed request"))
		return
	}

	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		sm.reject(conn, game.NewError(game.ERR_NAME_REQUIRED, "a display name is required"))
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	room := sm.lookupRoom(code)
	if room == nil {
		sm.reject(conn, game.NewError(game.ERR_NOT_FOUND, "room not found"))
		return
	}

	snapshot, gerr := room.AddPlayer(conn, name, false)
	if gerr != nil {
		sm.reject(conn, gerr)
		return
	}

	sm.bind(conn, code, snapshot.PlayerID)

	sm.send(conn, game.WrapMessage(game.MSG_ROOM_JOINED, snapshot))
}

func (sm *SessionManager) reconnect(conn game.Conn, data json.RawMessage) {
	var req game.ReconnectPayload
	if err := json.Unmarshal(data, &req); err != nil {
		sm.reject(conn, game.NewError(game.ERR_BAD_REQUEST, "malformed request"))
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))

	room := sm.lookupRoom(code)
	if room == nil {
		sm.reject(conn, game.NewError(game.ERR_NOT_FOUND, "room no longer exists"))
		return
	}

	snapshot, gerr := room.Reconnect(req.PlayerID, conn)
	if gerr != nil {
		sm.reject(conn, gerr)
		return
	}

	sm.bind(conn, code, snapshot.PlayerID)
	sm.cancelDestroy(code)

	sm.send(conn, game.WrapMessage(game.MSG_RECONNECTED, snapshot))
}

func (sm *SessionManager) dispatch(conn game.Conn, env game.Envelope) {
	sm.mu.RLock()
	b, bound := sm.bindings[conn]
	var room *game.Room
	if bound {
		room = sm.rooms[b.roomCode]
	}
	sm.mu.RUnlock()

	if !bound {
		sm.reject(conn, game.NewError(game.ERR_NOT_IN_ROOM, "you are not in a room"))
		return
	}

	if room == nil {
		sm.unbind(conn)
		sm.reject(conn, game.NewError(game.ERR_ROOM_GONE, "the room no longer exists"))
		return
	}

	// Host-only verbs are gated inside the room, under its own lock.
	var gerr *game.Error

	switch env.Type {
	case game.MSG_START_GAME:
		gerr = room.StartGame(b.playerID)

	case game.MSG_SUBMIT_DESCRIPTION:
		var req game.SubmitDescriptionPayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			gerr = game.NewError(game.ERR_BAD_REQUEST, "malformed request")
			break
		}
		gerr = room.SubmitDescription(b.playerID, req.Text)

	case game.MSG_SUBMIT_VOTE:
		var req game.SubmitVotePayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			gerr = game.NewError(game.ERR_BAD_REQUEST, "malformed request")
			break
		}
		gerr = room.SubmitVote(b.playerID, req.TargetID)

	case game.MSG_NEXT_ROUND:
		gerr = room.NextRound(b.playerID)

	case game.MSG_RESTART_GAME:
		gerr = room.RestartGame(b.playerID)

	case game.MSG_UPDATE_SETTINGS:
		var req game.UpdateSettingsPayload
		if err := json.Unmarshal(env.Data, &req); err != nil {
			gerr = game.NewError(game.ERR_BAD_REQUEST, "malformed request")
			break
		}
		gerr = room.UpdateSettings(b.playerID, req)

	case game.MSG_FORCE_NEXT_PHASE:
		gerr = room.ForceNextPhase(b.playerID)

	default:
		gerr = game.NewError(game.ERR_UNKNOWN_TYPE, "unknown message type")
	}

	if gerr != nil {
		sm.reject(conn, gerr)
	}
}

// OnDisconnect handles the transport's liveness signal: the participant
// record survives with its connection marked absent, and a fully
// disconnected room gets a destruction timer instead of dying immediately.
func (sm *SessionManager) OnDisconnect(conn game.Conn) {
	sm.mu.Lock()
	b, bound := sm.bindings[conn]
	delete(sm.bindings, conn)
	var room *game.Room
	if bound {
		room = sm.rooms[b.roomCode]
	}
	sm.mu.Unlock()

	if room == nil {
		return
	}

	connected, changed := room.MarkDisconnected(b.playerID, conn)
	if changed && connected == 0 {
		sm.scheduleDestroy(b.roomCode)
	}
}

// OnExplicitLeave removes the participant outright. An emptied room is
// destroyed immediately, without the grace period a passive disconnect gets.
func (sm *SessionManager) OnExplicitLeave(conn game.Conn) {
	sm.mu.Lock()
	b, bound := sm.bindings[conn]
	delete(sm.bindings, conn)
	var room *game.Room
	if bound {
		room = sm.rooms[b.roomCode]
	}
	sm.mu.Unlock()

	if !bound {
		sm.reject(conn, game.NewError(game.ERR_NOT_IN_ROOM, "you are not in a room"))
		return
	}

	if room == nil {
		return
	}

	remaining, connected := room.RemovePlayer(b.playerID)

	if remaining == 0 {
		sm.destroyRoom(b.roomCode)
		return
	}

	// A mid-game leave keeps the record on the roster; if nobody is left
	// connected the room still only survives the grace period.
	if connected == 0 {
		sm.scheduleDestroy(b.roomCode)
	}
}

// RoomCount reports the number of live rooms.
func (sm *SessionManager) RoomCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.rooms)
}

func (sm *SessionManager) lookupRoom(code string) *game.Room {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.rooms[code]
}

func (sm *SessionManager) bind(conn game.Conn, code string, playerID int64) {
	sm.mu.Lock()
	sm.bindings[conn] = binding{roomCode: code, playerID: playerID}
	sm.mu.Unlock()
}

func (sm *SessionManager) unbind(conn game.Conn) {
	sm.mu.Lock()
	delete(sm.bindings, conn)
	sm.mu.Unlock()
}

// generateCodeLocked rejection-samples until it finds a free code. Caller
// holds sm.mu.
func (sm *SessionManager) generateCodeLocked() string {
	buf := make([]byte, codeLength)
	for {
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := sm.rooms[code]; !taken {
			return code
		}
	}
}

// scheduleDestroy arms (or re-arms) the grace-period timer for a room.
func (sm *SessionManager) scheduleDestroy(code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if t, ok := sm.destroyTimers[code]; ok {
		t.Stop()
	}

	sm.destroyTimers[code] = time.AfterFunc(sm.gracePeriod, func() {
		sm.reapRoom(code)
	})

	zap.L().Info(
		"room destruction scheduled",
		zap.String("room_code", code),
		zap.Duration("grace_period", sm.gracePeriod),
	)
}

// cancelDestroy is idempotent: cancelling an unarmed room is a no-op.
func (sm *SessionManager) cancelDestroy(code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if t, ok := sm.destroyTimers[code]; ok {
		t.Stop()
		delete(sm.destroyTimers, code)

		zap.L().Info(
			"room destruction cancelled",
			zap.String("room_code", code),
		)
	}
}

// reapRoom runs when a grace timer fires. The re-check under the registry
// lock suppresses the delete if anyone reconnected during the window.
func (sm *SessionManager) reapRoom(code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.destroyTimers, code)

	room, ok := sm.rooms[code]
	if !ok {
		return
	}

	if room.ConnectedCount() > 0 {
		return
	}

	delete(sm.rooms, code)

	zap.L().Info(
		"room destroyed after grace period",
		zap.String("room_code", code),
	)
}

func (sm *SessionManager) destroyRoom(code string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if t, ok := sm.destroyTimers[code]; ok {
		t.Stop()
		delete(sm.destroyTimers, code)
	}

	delete(sm.rooms, code)

	zap.L().Info(
		"room destroyed",
		zap.String("room_code", code),
	)
}

// sweepLoop periodically removes rooms that reached zero participants
// outside the normal paths and logs the registry size.
func (sm *SessionManager) sweepLoop() {
	ticker := time.NewTicker(sm.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.done:
			return

		case <-ticker.C:
			var empty []string

			sm.mu.RLock()
			for code, room := range sm.rooms {
				if room.PlayerCount() == 0 {
					empty = append(empty, code)
				}
			}
			total := len(sm.rooms)
			sm.mu.RUnlock()

			for _, code := range empty {
				zap.L().Info("sweeping empty room", zap.String("room_code", code))
				sm.destroyRoom(code)
			}

			zap.L().Debug("registry sweep", zap.Int("rooms", total-len(empty)))
		}
	}
}

func (sm *SessionManager) reject(conn game.Conn, gerr *game.Error) {
	sm.send(conn, game.WrapError(gerr))
}

func (sm *SessionManager) send(conn game.Conn, msg game.Message) {
	if err := conn.Send(msg); err != nil {
		zap.L().Debug("reply send failed", zap.Error(err))
	}
}
