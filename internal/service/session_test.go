package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"undercover-be/internal/service/game"
	"undercover-be/internal/service/words"
)

type fakeConn struct {
	msgs []game.Message
}

func (f *fakeConn) Send(msg game.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeConn) last() *game.Message {
	if len(f.msgs) == 0 {
		return nil
	}
	return &f.msgs[len(f.msgs)-1]
}

func (f *fakeConn) lastOfType(msgType string) *game.Message {
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].Type == msgType {
			return &f.msgs[i]
		}
	}
	return nil
}

func (f *fakeConn) lastErrorKind() string {
	msg := f.lastOfType(game.MSG_ERROR)
	if msg == nil {
		return ""
	}
	return msg.Data.(game.ErrorPayload).Kind
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func newTestManager(t *testing.T, grace time.Duration) *SessionManager {
	t.Helper()
	sm := NewSessionManager(grace, time.Hour, words.NewBuiltinSource())
	t.Cleanup(sm.Close)
	return sm
}

func createRoom(t *testing.T, sm *SessionManager, conn *fakeConn, name, code string) game.RoomJoinedPayload {
	t.Helper()

	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_CREATE_ROOM,
		Data: mustMarshal(t, game.CreateRoomPayload{PlayerName: name, RoomCode: code}),
	})

	msg := conn.lastOfType(game.MSG_ROOM_CREATED)
	if msg == nil {
		t.Fatalf("no ROOM_CREATED, last message: %+v", conn.last())
	}
	return msg.Data.(game.RoomJoinedPayload)
}

func joinRoom(t *testing.T, sm *SessionManager, conn *fakeConn, name, code string) game.RoomJoinedPayload {
	t.Helper()

	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_JOIN_ROOM,
		Data: mustMarshal(t, game.JoinRoomPayload{RoomCode: code, PlayerName: name}),
	})

	msg := conn.lastOfType(game.MSG_ROOM_JOINED)
	if msg == nil {
		t.Fatalf("no ROOM_JOINED, last message: %+v", conn.last())
	}
	return msg.Data.(game.RoomJoinedPayload)
}

func TestCreateRoomGeneratesUniqueCodes(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		conn := &fakeConn{}
		created := createRoom(t, sm, conn, "host", "")

		if seen[created.RoomCode] {
			t.Fatalf("duplicate live room code %q", created.RoomCode)
		}
		seen[created.RoomCode] = true

		if len(created.RoomCode) != codeLength {
			t.Fatalf("code %q has length %d, want %d", created.RoomCode, len(created.RoomCode), codeLength)
		}
		for _, r := range created.RoomCode {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q uses %q, outside the unambiguous alphabet", created.RoomCode, r)
			}
		}
	}

	if sm.RoomCount() != 200 {
		t.Fatalf("room count = %d, want 200", sm.RoomCount())
	}
}

func TestCreateRoomValidation(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	conn := &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_CREATE_ROOM,
		Data: mustMarshal(t, game.CreateRoomPayload{PlayerName: "   "}),
	})
	if kind := conn.lastErrorKind(); kind != game.ERR_NAME_REQUIRED {
		t.Errorf("blank name: kind = %q, want %s", kind, game.ERR_NAME_REQUIRED)
	}

	conn = &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_CREATE_ROOM,
		Data: mustMarshal(t, game.CreateRoomPayload{PlayerName: "host", RoomCode: "way-too-long!"}),
	})
	if kind := conn.lastErrorKind(); kind != game.ERR_CODE_INVALID {
		t.Errorf("invalid code: kind = %q, want %s", kind, game.ERR_CODE_INVALID)
	}

	createRoom(t, sm, &fakeConn{}, "host", "TAKEN")

	conn = &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_CREATE_ROOM,
		Data: mustMarshal(t, game.CreateRoomPayload{PlayerName: "host", RoomCode: "taken"}),
	})
	if kind := conn.lastErrorKind(); kind != game.ERR_CODE_TAKEN {
		t.Errorf("taken code: kind = %q, want %s", kind, game.ERR_CODE_TAKEN)
	}
}

func TestJoinRoomValidation(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	createRoom(t, sm, &fakeConn{}, "host", "GAME1")

	conn := &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_JOIN_ROOM,
		Data: mustMarshal(t, game.JoinRoomPayload{RoomCode: "NOPE", PlayerName: "guest"}),
	})
	if kind := conn.lastErrorKind(); kind != game.ERR_NOT_FOUND {
		t.Errorf("missing room: kind = %q, want %s", kind, game.ERR_NOT_FOUND)
	}

	conn = &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_JOIN_ROOM,
		Data: mustMarshal(t, game.JoinRoomPayload{RoomCode: "GAME1", PlayerName: "host"}),
	})
	if kind := conn.lastErrorKind(); kind != game.ERR_NAME_TAKEN {
		t.Errorf("duplicate name: kind = %q, want %s", kind, game.ERR_NAME_TAKEN)
	}

	// Codes are case-insensitive on the way in.
	joinRoom(t, sm, &fakeConn{}, "guest", "game1")
}

func TestDispatchRequiresBinding(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	conn := &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{Type: game.MSG_START_GAME})

	if kind := conn.lastErrorKind(); kind != game.ERR_NOT_IN_ROOM {
		t.Errorf("kind = %q, want %s", kind, game.ERR_NOT_IN_ROOM)
	}
}

func TestHostOnlyVerbs(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	createRoom(t, sm, &fakeConn{}, "host", "GAME2")

	guest := &fakeConn{}
	joinRoom(t, sm, guest, "guest", "GAME2")

	sm.HandleMessage(guest, game.Envelope{Type: game.MSG_START_GAME})
	if kind := guest.lastErrorKind(); kind != game.ERR_NOT_HOST {
		t.Errorf("guest start: kind = %q, want %s", kind, game.ERR_NOT_HOST)
	}

	sm.HandleMessage(guest, game.Envelope{
		Type: game.MSG_UPDATE_SETTINGS,
		Data: mustMarshal(t, game.UpdateSettingsPayload{}),
	})
	if kind := guest.lastErrorKind(); kind != game.ERR_NOT_HOST {
		t.Errorf("guest settings: kind = %q, want %s", kind, game.ERR_NOT_HOST)
	}
}

func TestUnknownVerbRejected(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	host := &fakeConn{}
	createRoom(t, sm, host, "host", "GAME3")

	sm.HandleMessage(host, game.Envelope{Type: "DANCE"})
	if kind := host.lastErrorKind(); kind != game.ERR_UNKNOWN_TYPE {
		t.Errorf("kind = %q, want %s", kind, game.ERR_UNKNOWN_TYPE)
	}
}

func TestExplicitLeaveDestroysEmptyRoomImmediately(t *testing.T) {
	sm := newTestManager(t, time.Hour)

	host := &fakeConn{}
	createRoom(t, sm, host, "host", "BYE")

	sm.HandleMessage(host, game.Envelope{Type: game.MSG_LEAVE_ROOM})

	if sm.RoomCount() != 0 {
		t.Fatal("emptied room was not destroyed immediately")
	}

	// The leaver is unbound as well.
	sm.HandleMessage(host, game.Envelope{Type: game.MSG_START_GAME})
	if kind := host.lastErrorKind(); kind != game.ERR_NOT_IN_ROOM {
		t.Errorf("kind = %q, want %s", kind, game.ERR_NOT_IN_ROOM)
	}
}

func TestGracePeriodDestroysAbandonedRoom(t *testing.T) {
	sm := newTestManager(t, 30*time.Millisecond)

	host := &fakeConn{}
	createRoom(t, sm, host, "host", "GONE")

	sm.OnDisconnect(host)

	if sm.RoomCount() != 1 {
		t.Fatal("room destroyed before the grace period elapsed")
	}

	deadline := time.Now().Add(time.Second)
	for sm.RoomCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("room survived the grace period")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReconnectWithinGraceCancelsDestruction(t *testing.T) {
	sm := newTestManager(t, 50*time.Millisecond)

	host := &fakeConn{}
	created := createRoom(t, sm, host, "host", "BACK")

	sm.OnDisconnect(host)

	replacement := &fakeConn{}
	sm.HandleMessage(replacement, game.Envelope{
		Type: game.MSG_RECONNECT,
		Data: mustMarshal(t, game.ReconnectPayload{RoomCode: "BACK", PlayerID: created.PlayerID}),
	})

	msg := replacement.lastOfType(game.MSG_RECONNECTED)
	if msg == nil {
		t.Fatalf("no RECONNECTED, last message: %+v", replacement.last())
	}
	snapshot := msg.Data.(game.ReconnectedPayload)
	if !snapshot.IsHost {
		t.Error("reconnect lost the host flag")
	}

	time.Sleep(120 * time.Millisecond)

	if sm.RoomCount() != 1 {
		t.Fatal("reconnected room was destroyed anyway")
	}

	// A second full disconnect re-arms the timer.
	sm.OnDisconnect(replacement)

	deadline := time.Now().Add(time.Second)
	for sm.RoomCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("re-armed grace period never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReconnectIntoMissingRoom(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	conn := &fakeConn{}
	sm.HandleMessage(conn, game.Envelope{
		Type: game.MSG_RECONNECT,
		Data: mustMarshal(t, game.ReconnectPayload{RoomCode: "VOID", PlayerID: 7}),
	})

	if kind := conn.lastErrorKind(); kind != game.ERR_NOT_FOUND {
		t.Errorf("kind = %q, want %s", kind, game.ERR_NOT_FOUND)
	}
}

func TestDisconnectLeavesRoomAliveWhileOthersConnected(t *testing.T) {
	sm := newTestManager(t, 20*time.Millisecond)

	host := &fakeConn{}
	createRoom(t, sm, host, "host", "STAY")
	guest := &fakeConn{}
	joinRoom(t, sm, guest, "guest", "STAY")

	sm.OnDisconnect(host)

	time.Sleep(80 * time.Millisecond)

	if sm.RoomCount() != 1 {
		t.Fatal("room with a connected player was destroyed")
	}
}

func TestFullGameOverDispatch(t *testing.T) {
	sm := newTestManager(t, time.Minute)

	host := &fakeConn{}
	created := createRoom(t, sm, host, "p0", "TEST1")

	conns := []*fakeConn{host}
	ids := []int64{created.PlayerID}
	for i := 1; i < 5; i++ {
		conn := &fakeConn{}
		joined := joinRoom(t, sm, conn, "p"+string(rune('0'+i)), "TEST1")
		conns = append(conns, conn)
		ids = append(ids, joined.PlayerID)
	}

	sm.HandleMessage(host, game.Envelope{Type: game.MSG_START_GAME})

	if msg := host.lastOfType(game.MSG_GAME_STARTED); msg == nil {
		t.Fatalf("no GAME_STARTED, last message: %+v", host.last())
	}

	// Play the description round over the broadcast speaking order.
	phase := host.lastOfType(game.MSG_PHASE_CHANGE).Data.(game.PhaseChangePayload)
	if phase.Phase != "DESCRIBING" {
		t.Fatalf("phase = %s, want DESCRIBING", phase.Phase)
	}

	connByID := make(map[int64]*fakeConn, len(ids))
	for i, id := range ids {
		connByID[id] = conns[i]
	}

	for _, speaker := range phase.SpeakingOrder {
		sm.HandleMessage(connByID[speaker.ID], game.Envelope{
			Type: game.MSG_SUBMIT_DESCRIPTION,
			Data: mustMarshal(t, game.SubmitDescriptionPayload{Text: "something vague"}),
		})
	}

	voting := host.lastOfType(game.MSG_PHASE_CHANGE).Data.(game.PhaseChangePayload)
	if voting.Phase != "VOTING" {
		t.Fatalf("phase = %s, want VOTING", voting.Phase)
	}

	// Find the spy from the private GAME_STARTED payloads and gang up.
	var spyID int64
	for i, conn := range conns {
		started := conn.lastOfType(game.MSG_GAME_STARTED).Data.(game.GameStartedPayload)
		if started.Role == "SPY" {
			spyID = ids[i]
		}
	}
	if spyID == 0 {
		t.Fatal("no spy was assigned")
	}

	var decoy int64
	for _, id := range ids {
		if id != spyID {
			decoy = id
			break
		}
	}

	voted := 0
	for _, id := range ids {
		target := spyID
		if id == spyID || voted >= 3 {
			target = decoy
			if id == decoy {
				// The decoy cannot self-target; pile onto the spy instead.
				target = spyID
			}
		}
		sm.HandleMessage(connByID[id], game.Envelope{
			Type: game.MSG_SUBMIT_VOTE,
			Data: mustMarshal(t, game.SubmitVotePayload{TargetID: target}),
		})
		if target == spyID {
			voted++
		}
	}

	over := host.lastOfType(game.MSG_GAME_OVER)
	if over == nil {
		t.Fatalf("no GAME_OVER, last message: %+v", host.last())
	}
	if winner := over.Data.(game.GameOverPayload).Winner; winner != "CIVILIAN" {
		t.Errorf("winner = %s, want CIVILIAN", winner)
	}
}
