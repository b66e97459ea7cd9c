package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"memebattle/internal/artifacts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_CreateRoom(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"four digits", `{"code":"1234"}`, true},
		{"three digits", `{"code":"123"}`, false},
		{"five digits", `{"code":"12345"}`, false},
		{"letters", `{"code":"12ab"}`, false},
		{"missing", `{}`, false},
		{"wrong type", `{"code":1234}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p CreateRoom
			err := Decode(json.RawMessage(tt.raw), &p)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestDecode_SubmitVote(t *testing.T) {
	var ok SubmitVote
	require.NoError(t, Decode(json.RawMessage(`{"submissionPlayerId":"u2","voteType":"meh"}`), &ok))
	assert.Equal(t, "u2", ok.SubmissionPlayerID)

	var bad SubmitVote
	err := Decode(json.RawMessage(`{"submissionPlayerId":"u2","voteType":"love"}`), &bad)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "voteType")
}

func TestDecode_SubmitMeme(t *testing.T) {
	var p SubmitMeme
	require.NoError(t, Decode(json.RawMessage(`{"captions":[{"text":"top text","top":"10%","left":"5%"}]}`), &p))
	require.Len(t, p.Captions, 1)
	assert.Equal(t, "top text", p.Captions[0].Text)

	var empty SubmitMeme
	assert.ErrorIs(t, Decode(json.RawMessage(`{"captions":[]}`), &empty), ErrInvalidPayload)

	long := SubmitMeme{Captions: []artifacts.Caption{{Text: strings.Repeat("x", 201)}}}
	err := Validate(&long)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "text")

	tooMany := SubmitMeme{Captions: make([]artifacts.Caption, 6)}
	assert.ErrorIs(t, Validate(&tooMany), ErrInvalidPayload)
}

func TestDecode_EmptyData(t *testing.T) {
	var p StartGame
	assert.NoError(t, Decode(nil, &p))

	var chat GameChat
	assert.ErrorIs(t, Decode(nil, &chat), ErrInvalidPayload)
}

func TestDecode_Malformed(t *testing.T) {
	var p JoinRoom
	err := Decode(json.RawMessage(`{"code":`), &p)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestDecode_StarMeme(t *testing.T) {
	var p StarMeme
	assert.NoError(t, Decode(json.RawMessage(`{"imageUrl":"/generated/meme-g-1.png"}`), &p))
	assert.ErrorIs(t, Decode(json.RawMessage(`{"imageUrl":"https://evil.example/x.png"}`), &p), ErrInvalidPayload)
}

func TestAckMessages(t *testing.T) {
	data, err := json.Marshal(Fail("r1", errors.New("room is full")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ack","data":{"ref":"r1","success":false,"error":"room is full"}}`, string(data))

	data, err = json.Marshal(OK("r2", map[string]string{"imageUrl": "/generated/x.png"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ack","data":{"ref":"r2","success":true,"data":{"imageUrl":"/generated/x.png"}}}`, string(data))
}
