package protocol

import "encoding/json"

// Inbound message types.
const (
	TypeCreateRoom     = "create_room"
	TypeJoinRoom       = "join_room"
	TypeLeaveRoom      = "leave_room"
	TypeStartGame      = "start_game"
	TypeSubmitMeme     = "submit_meme"
	TypeSubmitVote     = "submit_vote"
	TypeRequestReroll  = "request_reroll"
	TypeRequestRematch = "request_rematch"
	TypeStarMeme       = "star_meme"
	TypeGameChat       = "game_chat"
)

// Outbound message types.
const (
	TypeAck                = "ack"
	TypePlayerInfo         = "player_info"
	TypeGameState          = "game_state"
	TypePlayersUpdate      = "players_update"
	TypePlayerJoined       = "player_joined"
	TypePlayerLeft         = "player_left"
	TypePlayerDisconnected = "player_disconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypeHostChanged        = "host_changed"
	TypeGameStarted        = "game_started"
	TypeMemeSubmitted      = "meme_submitted"
	TypeVotingStarted      = "voting_started"
	TypeVotingSubmission   = "voting_submission"
	TypeVoteCast           = "vote_cast"
	TypeTimeUpdate         = "time_update"
	TypeVotingPhaseEnded   = "voting_phase_ended"
	TypeScoreUpdate        = "score_update"
	TypeRoundResults       = "round_results"
	TypeGameRankings       = "game_rankings"
	TypeRerollResult       = "reroll_result"
	TypeRematchStarted     = "rematch_started"
	TypeRoomClosed         = "room_closed"
	TypeLeftRoom           = "left_room"
	TypeGamesUpdate        = "games_update"
	TypeError              = "error"
)

// Message is the envelope for everything sent to a client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func New(typ string, data any) Message {
	return Message{Type: typ, Data: data}
}

// Envelope is the raw form of everything received from a client.
// Ref is echoed back in the matching ack.
type Envelope struct {
	Type string          `json:"type"`
	Ref  string          `json:"ref,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Ack struct {
	Ref     string `json:"ref,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(ref string, data any) Message {
	return New(TypeAck, Ack{Ref: ref, Success: true, Data: data})
}

func Fail(ref string, err error) Message {
	return New(TypeAck, Ack{Ref: ref, Success: false, Error: err.Error()})
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Err reports a failure that has no request to acknowledge.
func Err(err error) Message {
	return New(TypeError, ErrorPayload{Message: err.Error()})
}
