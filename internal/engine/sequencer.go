package engine

import (
	"slices"
	"time"

	"memebattle/internal/gamedata"
	"memebattle/internal/protocol"
)

// advanceVoting reveals the next submission to the whole room and arms the
// reveal timer. Past the last submission it does nothing; the reveal timer
// of the last one ends the round, so it still gets a full window.
func (e *Engine) advanceVoting(g *gamedata.Game) {
	r := g.Round
	if r == nil || r.Phase != gamedata.PhaseVoting || r.VotingInProgress {
		return
	}
	r.VotingInProgress = true
	defer func() { r.VotingInProgress = false }()

	r.Cursor++
	s := r.Current()
	if s == nil {
		return
	}

	r.TimeLeft = g.Settings.VoteSeconds
	e.broadcast(g, protocol.TypeTimeUpdate, TimeUpdate{Phase: gamedata.PhaseVoting, TimeLeft: r.TimeLeft})

	e.broadcast(g, protocol.TypeVotingSubmission, VotingSubmission{
		Index: r.Cursor,
		Total: len(r.Submissions),
		Submission: Reveal{
			PlayerID:    s.PlayerID,
			Name:        s.Name,
			ImageURL:    s.ImageURL,
			TemplateURL: s.TemplateURL,
			Captions:    slices.Clone(s.Captions),
		},
	})

	gameID, round, cursor := g.ID, r.Number, r.Cursor
	e.timers.After(gameID, keyReveal, time.Duration(g.Settings.VoteSeconds)*time.Second, func() {
		e.onRevealTimeout(gameID, round, cursor)
	})
}

// onRevealTimeout moves past the submission at cursor, or ends the round
// after the last one. A timer armed for another round or cursor is ignored.
func (e *Engine) onRevealTimeout(gameID string, round, cursor int) {
	e.onTimer(gameID, func(g *gamedata.Game, t *tx) error {
		r := g.Round
		if g.Status != gamedata.StatusPlaying || r == nil || r.Number != round ||
			r.Phase != gamedata.PhaseVoting || r.Cursor != cursor {
			return nil
		}
		if cursor >= len(r.Submissions)-1 {
			e.broadcast(g, protocol.TypeVotingPhaseEnded, VotingEnded{Round: r.Number})
			e.endRound(g, t)
			return nil
		}
		e.advanceVoting(g)
		return nil
	})
}
