package protocol

import "memebattle/internal/artifacts"

type CreateRoom struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

type JoinRoom struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

// StartGame values are clamped by the engine; zero means default.
type StartGame struct {
	Rounds       int `json:"rounds" validate:"gte=0"`
	RoundSeconds int `json:"roundSeconds" validate:"gte=0"`
	VoteSeconds  int `json:"voteSeconds" validate:"gte=0"`
}

type SubmitMeme struct {
	Captions []artifacts.Caption `json:"captions" validate:"required,min=1,max=5,dive"`
}

type SubmitVote struct {
	SubmissionPlayerID string `json:"submissionPlayerId" validate:"required"`
	VoteType           string `json:"voteType" validate:"required,oneof=like meh pass"`
}

type StarMeme struct {
	ImageURL string `json:"imageUrl" validate:"required,startswith=/generated/"`
}

type GameChat struct {
	Message string `json:"message" validate:"required,min=1,max=300"`
}
