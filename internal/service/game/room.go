package game

import (
	"math/rand"
	"sync"

	"undercover-be/internal/service/words"

	"go.uber.org/zap"
)

// Game phases. Transitions are strictly sequential:
// WAITING → DESCRIBING → VOTING → ROUND_RESULT → {DESCRIBING | GAME_OVER},
// and GAME_OVER → WAITING via an explicit restart.
const (
	PHASE_WAITING      = "WAITING"
	PHASE_DESCRIBING   = "DESCRIBING"
	PHASE_VOTING       = "VOTING"
	PHASE_ROUND_RESULT = "ROUND_RESULT"
	PHASE_GAME_OVER    = "GAME_OVER"
)

// Winning sides.
const (
	WINNER_CIVILIAN = "CIVILIAN"
	WINNER_SPY      = "SPY"
	WINNER_BLANK    = "BLANK"
)

// Room owns one game's full state. Every operation runs under the room's own
// mutex, so mutations to a single room never interleave while separate rooms
// proceed in parallel. Operations either commit and notify, or reject with a
// typed *Error and touch nothing.
type Room struct {
	mu sync.Mutex

	code     string
	settings Settings
	phase    string
	round    int
	// Insertion order is join order.
	players       []*Player
	descriptions  map[int64]string
	votes         map[int64]int64
	wordPair      *words.Pair
	speakingOrder []int64
	speakerCursor int
	// Non-nil when the previous vote tied; the next DESCRIBING entry is a
	// tiebreak round restricted to exactly these players.
	tiebreakIDs []int64

	source words.Source
}

func NewRoom(code string, source words.Source) *Room {
	return &Room{
		code:         code,
		settings:     DefaultSettings(),
		phase:        PHASE_WAITING,
		players:      make([]*Player, 0, 8),
		descriptions: make(map[int64]string),
		votes:        make(map[int64]int64),
		source:       source,
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Phase() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Room) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedCount()
}

// AddPlayer joins a connected participant. Only permitted while the room is
// still in the lobby; names are unique per room.
func (r *Room) AddPlayer(conn Conn, name string, isHost bool) (RoomJoinedPayload, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PHASE_WAITING {
		return RoomJoinedPayload{}, NewError(ERR_ALREADY_STARTED, "game already started")
	}

	if len(r.players) >= r.settings.MaxPlayers {
		return RoomJoinedPayload{}, NewError(ERR_FULL, "room is full")
	}

	for _, p := range r.players {
		if p.Name == name {
			return RoomJoinedPayload{}, NewError(ERR_NAME_TAKEN, "that name is already taken")
		}
	}

	player := &Player{
		ID:     NewPlayerID(),
		Name:   name,
		IsHost: isHost,
		Alive:  true,
		Conn:   conn,
	}
	r.players = append(r.players, player)

	r.broadcast(WrapMessage(MSG_PLAYER_JOINED, PlayerJoinedPayload{
		Player:  r.playerInfo(player),
		Players: r.playersInfo(),
	}), player.ID)

	zap.L().Info(
		"player joined room",
		zap.String("room_code", r.code),
		zap.Int64("player_id", player.ID),
		zap.String("player_name", player.Name),
		zap.Bool("is_host", isHost),
	)

	return RoomJoinedPayload{
		RoomCode: r.code,
		PlayerID: player.ID,
		Players:  r.playersInfo(),
		Settings: r.settings,
	}, nil
}

// Reconnect rebinds a transport handle to an existing participant record.
// Valid in every phase; the snapshot carries everything the client needs to
// resume, including its own secret word and the current speaker mid-round.
func (r *Room) Reconnect(playerID int64, conn Conn) (ReconnectedPayload, *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		return ReconnectedPayload{}, NewError(ERR_RECONNECT_FAILED, "unknown participant, rejoin instead")
	}

	player.Conn = conn

	snapshot := ReconnectedPayload{
		RoomCode: r.code,
		PlayerID: player.ID,
		Players:  r.playersInfo(),
		Settings: r.settings,
		Phase:    r.phase,
		Round:    r.round,
		Word:     player.Word,
		Role:     player.Role,
		IsHost:   player.IsHost,
	}

	if r.phase == PHASE_DESCRIBING {
		snapshot.CurrentSpeaker = r.currentSpeaker()
	}

	r.broadcast(WrapMessage(MSG_PLAYER_JOINED, PlayerJoinedPayload{
		Player:      r.playerInfo(player),
		Players:     r.playersInfo(),
		Reconnected: true,
	}), player.ID)

	zap.L().Info(
		"player reconnected",
		zap.String("room_code", r.code),
		zap.Int64("player_id", player.ID),
		zap.String("phase", r.phase),
	)

	return snapshot, nil
}

// MarkDisconnected drops the transport handle but keeps the participant
// record intact so the game never loses state to a flaky connection. The
// stale-conn check mirrors how a reconnect can race an old socket's close:
// only the handle that is still bound gets to mark its player disconnected.
// Returns the remaining connected count and whether anything changed.
func (r *Room) MarkDisconnected(playerID int64, conn Conn) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil || player.Conn != conn {
		return r.connectedCount(), false
	}

	player.Conn = nil

	r.broadcast(WrapMessage(MSG_PLAYER_LEFT, PlayerLeftPayload{
		PlayerID:     player.ID,
		Name:         player.Name,
		Disconnected: true,
		Players:      r.playersInfo(),
	}), player.ID)

	// A phase must never deadlock waiting on someone who can no longer act.
	if r.phase != PHASE_WAITING {
		r.checkPhaseCompletion()
	}

	zap.L().Info(
		"player disconnected",
		zap.String("room_code", r.code),
		zap.Int64("player_id", player.ID),
	)

	return r.connectedCount(), true
}

// RemovePlayer handles an explicit leave. In the lobby the record is removed
// and the host role transfers to the next-oldest participant; mid-game the
// record is kept but marked dead and disconnected. Returns the remaining
// roster size and connected count.
func (r *Room) RemovePlayer(playerID int64) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(r.players), r.connectedCount()
	}

	player := r.players[idx]

	if r.phase != PHASE_WAITING {
		player.Alive = false
		player.Conn = nil

		r.broadcast(WrapMessage(MSG_PLAYER_LEFT, PlayerLeftPayload{
			PlayerID:     player.ID,
			Name:         player.Name,
			Disconnected: true,
			Players:      r.playersInfo(),
		}), player.ID)

		r.checkPhaseCompletion()

		return len(r.players), r.connectedCount()
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if player.IsHost && len(r.players) > 0 {
		r.players[0].IsHost = true
	}

	r.broadcast(WrapMessage(MSG_PLAYER_LEFT, PlayerLeftPayload{
		PlayerID: player.ID,
		Name:     player.Name,
		Players:  r.playersInfo(),
	}), player.ID)

	zap.L().Info(
		"player left room",
		zap.String("room_code", r.code),
		zap.Int64("player_id", player.ID),
		zap.Int("remaining", len(r.players)),
	)

	return len(r.players), r.connectedCount()
}

// UpdateSettings clamps and applies host-sent settings. Host only, lobby
// only; the host check runs under the same lock hold as the commit so a
// concurrent host transfer cannot slip between check and apply.
func (r *Room) UpdateSettings(actorID int64, req UpdateSettingsPayload) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gerr := r.requireHost(actorID); gerr != nil {
		return gerr
	}

	if r.phase != PHASE_WAITING {
		return NewError(ERR_WRONG_PHASE, "settings can only change in the lobby")
	}

	r.settings.apply(req)

	r.broadcast(WrapMessage(MSG_SETTINGS_UPDATED, SettingsUpdatedPayload{
		Settings: r.settings,
	}), 0)

	return nil
}

// StartGame draws a word pair, assigns roles by slicing a uniformly random
// permutation of the roster, sends each participant its secret privately,
// and enters the first description round. Host only.
func (r *Room) StartGame(actorID int64) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gerr := r.requireHost(actorID); gerr != nil {
		return gerr
	}

	if r.phase != PHASE_WAITING {
		return NewError(ERR_ALREADY_STARTED, "game already started")
	}

	if minPlayers := r.settings.minPlayersToStart(); len(r.players) < minPlayers {
		return NewError(ERR_NOT_ENOUGH_PLAYERS, "not enough players to start")
	}

	if len(r.players) > r.settings.MaxPlayers {
		return NewError(ERR_FULL, "too many players for the current settings")
	}

	pair, err := r.source.RandomPair(r.settings.Difficulty)
	if err != nil {
		zap.L().Error(
			"word source failed",
			zap.String("room_code", r.code),
			zap.Error(err),
		)
		return NewError(ERR_INTERNAL, "no word pair available")
	}
	r.wordPair = &pair

	indices := rand.Perm(len(r.players))

	spies := r.settings.SpyCount
	blanks := r.settings.BlankCount

	for i, idx := range indices {
		p := r.players[idx]
		switch {
		case i < spies:
			p.Role = ROLE_SPY
			p.Word = pair.SpyWord
		case i < spies+blanks:
			p.Role = ROLE_BLANK
			p.Word = ""
		default:
			p.Role = ROLE_CIVILIAN
			p.Word = pair.CivilianWord
		}
	}

	for _, p := range r.players {
		p.Alive = true
	}
	r.round = 0
	r.tiebreakIDs = nil

	// Secrets go out one by one, never in a broadcast.
	for _, p := range r.players {
		r.sendTo(p.ID, WrapMessage(MSG_GAME_STARTED, GameStartedPayload{
			Word:     p.Word,
			Role:     p.Role,
			Players:  r.playersInfo(),
			Settings: r.settings,
		}))
	}

	zap.L().Info(
		"game started",
		zap.String("room_code", r.code),
		zap.Int("players", len(r.players)),
		zap.Int("spies", spies),
		zap.Int("blanks", blanks),
	)

	r.startDescriptionPhase()

	return nil
}

// SubmitDescription accepts the current speaker's text, advances the cursor
// past anyone who can no longer speak, and moves to voting once the order is
// exhausted.
func (r *Room) SubmitDescription(playerID int64, text string) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PHASE_DESCRIBING {
		return NewError(ERR_WRONG_PHASE, "not the description phase")
	}

	player := r.findPlayer(playerID)
	if player == nil || !player.Alive {
		return NewError(ERR_NOT_ALIVE, "you are out of the game")
	}

	if r.speakerCursor >= len(r.speakingOrder) || r.speakingOrder[r.speakerCursor] != playerID {
		return NewError(ERR_NOT_YOUR_TURN, "it is not your turn to speak")
	}

	r.descriptions[playerID] = text
	r.speakerCursor++
	r.skipInvalidSpeakers()

	isLast := r.speakerCursor >= len(r.speakingOrder)

	r.broadcast(WrapMessage(MSG_DESCRIPTION_UPDATE, DescriptionUpdatePayload{
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		Text:        text,
		Submitted:   len(r.descriptions),
		Total:       len(r.connectedAlive()),
		NextSpeaker: r.currentSpeaker(),
		IsLast:      isLast,
		Round:       r.round,
	}), 0)

	if isLast {
		r.startVotingPhase()
	}

	return nil
}

// SubmitVote records one vote per living voter. Self-votes and dead or
// out-of-tiebreak targets are rejected. The round resolves automatically
// once every connected living participant has voted.
func (r *Room) SubmitVote(voterID, targetID int64) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PHASE_VOTING {
		return NewError(ERR_WRONG_PHASE, "not the voting phase")
	}

	voter := r.findPlayer(voterID)
	if voter == nil || !voter.Alive {
		return NewError(ERR_NOT_ALIVE, "you are out of the game")
	}

	if _, voted := r.votes[voterID]; voted {
		return NewError(ERR_ALREADY_VOTED, "you have already voted")
	}

	if voterID == targetID {
		return NewError(ERR_BAD_TARGET, "you cannot vote for yourself")
	}

	target := r.findPlayer(targetID)
	if target == nil || !target.Alive {
		return NewError(ERR_BAD_TARGET, "target is not in the game")
	}

	if r.tiebreakIDs != nil && !containsID(r.tiebreakIDs, targetID) {
		return NewError(ERR_BAD_TARGET, "only tied players can be voted in a tiebreak")
	}

	r.votes[voterID] = targetID

	connected := len(r.connectedAlive())

	r.broadcast(WrapMessage(MSG_VOTE_UPDATE, VoteUpdatePayload{
		Submitted: len(r.votes),
		Total:     connected,
	}), 0)

	if len(r.votes) >= connected {
		r.resolveVotes()
	}

	return nil
}

// NextRound re-enters DESCRIBING, honoring whatever tiebreak state the last
// vote resolution left behind. Host only.
func (r *Room) NextRound(actorID int64) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gerr := r.requireHost(actorID); gerr != nil {
		return gerr
	}

	if r.phase != PHASE_ROUND_RESULT {
		return NewError(ERR_WRONG_PHASE, "the round is not over")
	}

	r.startDescriptionPhase()

	return nil
}

// ForceNextPhase lets the host push a stuck room forward: end descriptions
// early, or resolve votes once at least one has been cast.
func (r *Room) ForceNextPhase(actorID int64) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gerr := r.requireHost(actorID); gerr != nil {
		return gerr
	}

	switch r.phase {
	case PHASE_DESCRIBING:
		r.startVotingPhase()
		return nil
	case PHASE_VOTING:
		if len(r.votes) == 0 {
			return NewError(ERR_BAD_REQUEST, "at least one vote is needed before forcing")
		}
		r.resolveVotes()
		return nil
	default:
		return NewError(ERR_WRONG_PHASE, "this phase cannot be forced")
	}
}

// RestartGame returns the room to the lobby from any phase. Round-scoped
// state clears, surviving connected participants reset, and anyone still
// disconnected is dropped from the roster. Host only.
func (r *Room) RestartGame(actorID int64) *Error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gerr := r.requireHost(actorID); gerr != nil {
		return gerr
	}

	r.phase = PHASE_WAITING
	r.round = 0
	r.descriptions = make(map[int64]string)
	r.votes = make(map[int64]int64)
	r.wordPair = nil
	r.speakingOrder = nil
	r.speakerCursor = 0
	r.tiebreakIDs = nil

	kept := r.players[:0]
	for _, p := range r.players {
		if !p.Connected() {
			continue
		}
		p.Role = ROLE_UNSET
		p.Word = ""
		p.Alive = true
		kept = append(kept, p)
	}
	r.players = kept

	hasHost := false
	for _, p := range r.players {
		if p.IsHost {
			hasHost = true
			break
		}
	}
	if !hasHost && len(r.players) > 0 {
		r.players[0].IsHost = true
	}

	r.broadcast(WrapMessage(MSG_PHASE_CHANGE, PhaseChangePayload{
		Phase:    PHASE_WAITING,
		Players:  r.playersInfo(),
		Settings: &r.settings,
	}), 0)

	zap.L().Info(
		"game restarted",
		zap.String("room_code", r.code),
		zap.Int("players", len(r.players)),
	)

	return nil
}

// --- internal transitions, caller holds r.mu ---

func (r *Room) startDescriptionPhase() {
	isTiebreak := r.tiebreakIDs != nil

	if !isTiebreak {
		r.round++
	}

	r.descriptions = make(map[int64]string)
	r.phase = PHASE_DESCRIBING

	var ids []int64
	if isTiebreak {
		for _, id := range r.tiebreakIDs {
			p := r.findPlayer(id)
			if p != nil && p.Alive && p.Connected() {
				ids = append(ids, id)
			}
		}
	} else {
		for _, p := range r.connectedAlive() {
			ids = append(ids, p.ID)
		}
	}

	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	// Half the time the shuffled order is reversed.
	if !isTiebreak && rand.Intn(2) == 0 {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}

	r.speakingOrder = ids
	r.speakerCursor = 0
	r.skipInvalidSpeakers()

	orderInfo := make([]SpeakerInfo, 0, len(r.speakingOrder))
	for _, id := range r.speakingOrder {
		if p := r.findPlayer(id); p != nil {
			orderInfo = append(orderInfo, SpeakerInfo{ID: p.ID, Name: p.Name})
		}
	}

	notif := PhaseChangePayload{
		Phase:          PHASE_DESCRIBING,
		Round:          r.round,
		SpeakingOrder:  orderInfo,
		CurrentSpeaker: r.currentSpeaker(),
		IsTiebreak:     isTiebreak,
	}
	if isTiebreak {
		notif.TiebreakPlayers = r.playerNames(r.tiebreakIDs)
	}

	r.broadcast(WrapMessage(MSG_PHASE_CHANGE, notif), 0)

	// Nobody able to speak, e.g. every tied player dropped mid-window.
	if r.speakerCursor >= len(r.speakingOrder) {
		r.startVotingPhase()
	}
}

func (r *Room) startVotingPhase() {
	r.votes = make(map[int64]int64)
	r.phase = PHASE_VOTING

	isTiebreak := r.tiebreakIDs != nil

	alive := make([]SpeakerInfo, 0)
	for _, p := range r.connectedAlive() {
		alive = append(alive, SpeakerInfo{ID: p.ID, Name: p.Name})
	}

	notif := PhaseChangePayload{
		Phase:        PHASE_VOTING,
		Round:        r.round,
		AlivePlayers: alive,
		IsTiebreak:   isTiebreak,
	}

	// The voteable set is broadcast separately from the alive set so
	// clients can restrict their choices in a tiebreak.
	if isTiebreak {
		voteable := make([]SpeakerInfo, 0, len(alive))
		for _, s := range alive {
			if containsID(r.tiebreakIDs, s.ID) {
				voteable = append(voteable, s)
			}
		}
		notif.VoteablePlayers = voteable
	}

	r.broadcast(WrapMessage(MSG_PHASE_CHANGE, notif), 0)
}

func (r *Room) resolveVotes() {
	tally := make(map[int64]int)
	for _, targetID := range r.votes {
		tally[targetID]++
	}

	maxVotes := 0
	for _, count := range tally {
		if count > maxVotes {
			maxVotes = count
		}
	}

	var topVoted []int64
	for targetID, count := range tally {
		if count == maxVotes {
			topVoted = append(topVoted, targetID)
		}
	}

	voteDetails := make(map[string]string, len(r.votes))
	for voterID, targetID := range r.votes {
		voter := r.findPlayer(voterID)
		target := r.findPlayer(targetID)
		if voter != nil && target != nil {
			voteDetails[voter.Name] = target.Name
		}
	}

	r.phase = PHASE_ROUND_RESULT

	if len(topVoted) != 1 {
		// Tie: nobody is eliminated, the next round is a tiebreak among
		// exactly the tied players.
		if len(topVoted) > 1 {
			r.tiebreakIDs = topVoted
		} else {
			r.tiebreakIDs = nil
		}

		tiedNames := r.playerNames(r.tiebreakIDs)

		r.broadcast(WrapMessage(MSG_VOTE_RESULT, VoteResultPayload{
			Eliminated:      nil,
			Tie:             true,
			VoteDetails:     voteDetails,
			Round:           r.round,
			TiebreakPlayers: tiedNames,
		}), 0)

		r.broadcast(WrapMessage(MSG_PHASE_CHANGE, PhaseChangePayload{
			Phase:           PHASE_ROUND_RESULT,
			Round:           r.round,
			CanNextRound:    true,
			IsTiebreak:      r.tiebreakIDs != nil,
			TiebreakPlayers: tiedNames,
		}), 0)

		zap.L().Info(
			"vote tied",
			zap.String("room_code", r.code),
			zap.Int("round", r.round),
			zap.Int("tied", len(topVoted)),
		)

		return
	}

	r.tiebreakIDs = nil

	eliminated := r.findPlayer(topVoted[0])
	eliminated.Alive = false

	// The one moment a single role is revealed before game end.
	r.broadcast(WrapMessage(MSG_VOTE_RESULT, VoteResultPayload{
		Eliminated: &EliminatedInfo{
			ID:   eliminated.ID,
			Name: eliminated.Name,
			Role: eliminated.Role,
		},
		Tie:         false,
		VoteDetails: voteDetails,
		Round:       r.round,
	}), 0)

	zap.L().Info(
		"player eliminated",
		zap.String("room_code", r.code),
		zap.Int64("player_id", eliminated.ID),
		zap.String("role", eliminated.Role),
		zap.Int("round", r.round),
	)

	if winner, reason := r.checkWinCondition(); winner != "" {
		r.phase = PHASE_GAME_OVER

		roles := make([]RoleReveal, 0, len(r.players))
		for _, p := range r.players {
			roles = append(roles, RoleReveal{
				ID:    p.ID,
				Name:  p.Name,
				Role:  p.Role,
				Word:  p.Word,
				Alive: p.Alive,
			})
		}

		r.broadcast(WrapMessage(MSG_GAME_OVER, GameOverPayload{
			Winner:       winner,
			Reason:       reason,
			Roles:        roles,
			CivilianWord: r.wordPair.CivilianWord,
			SpyWord:      r.wordPair.SpyWord,
		}), 0)

		zap.L().Info(
			"game over",
			zap.String("room_code", r.code),
			zap.String("winner", winner),
			zap.Int("round", r.round),
		)

		return
	}

	r.broadcast(WrapMessage(MSG_PHASE_CHANGE, PhaseChangePayload{
		Phase:        PHASE_ROUND_RESULT,
		Round:        r.round,
		CanNextRound: true,
	}), 0)
}

// checkWinCondition is evaluated only after a successful elimination. With
// S alive spies, B alive blanks, C alive civilians: S=0 hands the win to the
// blanks if any survive, else the civilians; S ≥ B+C hands it to the spies.
func (r *Room) checkWinCondition() (string, string) {
	var spies, blanks, civilians int
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		switch p.Role {
		case ROLE_SPY:
			spies++
		case ROLE_BLANK:
			blanks++
		case ROLE_CIVILIAN:
			civilians++
		}
	}

	if spies == 0 {
		if blanks > 0 {
			return WINNER_BLANK, "all spies are out and a blank survives"
		}
		return WINNER_CIVILIAN, "all spies have been eliminated"
	}

	if spies >= blanks+civilians {
		return WINNER_SPY, "the spies are no longer outnumbered"
	}

	return "", ""
}

func (r *Room) checkPhaseCompletion() {
	switch r.phase {
	case PHASE_DESCRIBING:
		before := r.speakerCursor
		r.skipInvalidSpeakers()

		if r.speakerCursor >= len(r.speakingOrder) {
			r.startVotingPhase()
			return
		}

		if r.speakerCursor != before {
			r.broadcast(WrapMessage(MSG_DESCRIPTION_UPDATE, DescriptionUpdatePayload{
				Skipped:     true,
				NextSpeaker: r.currentSpeaker(),
				Submitted:   len(r.descriptions),
				Total:       len(r.connectedAlive()),
				Round:       r.round,
			}), 0)
		}

	case PHASE_VOTING:
		// Cast votes still resolve when every remaining voter has since
		// disconnected; only a voteless room keeps waiting.
		if len(r.votes) == 0 {
			return
		}
		for _, p := range r.connectedAlive() {
			if _, voted := r.votes[p.ID]; !voted {
				return
			}
		}
		r.resolveVotes()
	}
}

// skipInvalidSpeakers advances the cursor past anyone dead or disconnected.
// Skipped players stay on the roster; they are only silent as speakers.
func (r *Room) skipInvalidSpeakers() {
	for r.speakerCursor < len(r.speakingOrder) {
		p := r.findPlayer(r.speakingOrder[r.speakerCursor])
		if p != nil && p.Alive && p.Connected() {
			return
		}
		r.speakerCursor++
	}
}

// --- helpers, caller holds r.mu ---

func (r *Room) requireHost(actorID int64) *Error {
	p := r.findPlayer(actorID)
	if p == nil || !p.IsHost {
		return NewError(ERR_NOT_HOST, "only the host can do that")
	}
	return nil
}

func (r *Room) findPlayer(id int64) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) currentSpeaker() *SpeakerInfo {
	if r.speakerCursor >= len(r.speakingOrder) {
		return nil
	}
	p := r.findPlayer(r.speakingOrder[r.speakerCursor])
	if p == nil {
		return nil
	}
	return &SpeakerInfo{ID: p.ID, Name: p.Name}
}

func (r *Room) connectedAlive() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive && p.Connected() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.Connected() {
			n++
		}
	}
	return n
}

func (r *Room) playerInfo(p *Player) PlayerInfo {
	info := PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		IsHost: p.IsHost,
		Alive:  p.Alive,
	}
	if r.phase == PHASE_GAME_OVER {
		info.Role = p.Role
	}
	return info
}

func (r *Room) playersInfo() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, r.playerInfo(p))
	}
	return out
}

func (r *Room) playerNames(ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p := r.findPlayer(id); p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// broadcast fans a message out to every connected participant except
// excludeID (0 excludes nobody). A failed send is logged and ignored; it is
// never treated as a disconnect.
func (r *Room) broadcast(msg Message, excludeID int64) {
	for _, p := range r.players {
		if p.Conn == nil || p.ID == excludeID {
			continue
		}
		if err := p.Conn.Send(msg); err != nil {
			zap.L().Debug(
				"broadcast send failed",
				zap.String("room_code", r.code),
				zap.Int64("player_id", p.ID),
				zap.Error(err),
			)
		}
	}
}

func (r *Room) sendTo(playerID int64, msg Message) {
	p := r.findPlayer(playerID)
	if p == nil || p.Conn == nil {
		return
	}
	if err := p.Conn.Send(msg); err != nil {
		zap.L().Debug(
			"unicast send failed",
			zap.String("room_code", r.code),
			zap.Int64("player_id", playerID),
			zap.Error(err),
		)
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
