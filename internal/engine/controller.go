package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"memebattle/internal/artifacts"
	"memebattle/internal/db"
	"memebattle/internal/gamedata"
	"memebattle/internal/memes"
	"memebattle/internal/metrics"
	"memebattle/internal/players"
	"memebattle/internal/protocol"
	"memebattle/internal/scoring"

	"github.com/rs/zerolog/log"
)

// Start moves a waiting game into its first round. Zero settings take the
// defaults and everything is clamped to the allowed ranges.
func (e *Engine) Start(gameID, playerID string, requested gamedata.Settings) error {
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		if g.Players.Get(playerID) == nil {
			return ErrNotInRoom
		}
		if g.HostID() != playerID {
			return ErrNotHost
		}
		if g.Status != gamedata.StatusWaiting {
			return ErrWrongStatus
		}
		if g.Players.Len() < gamedata.MinPlayers {
			return ErrNotEnoughPlayers
		}

		g.Settings = requested.Clamp()
		g.Status = gamedata.StatusPlaying
		g.StartedAt = time.Now()
		g.CurrentRound = 0
		g.LastResults = nil
		metrics.GamesStarted.Inc()

		log.Info().
			Str("component", "engine").
			Str("game_id", g.ID).
			Str("code", g.Code).
			Int("players", g.Players.Len()).
			Int("rounds", g.Settings.TotalRounds).
			Msg("game started")

		e.broadcast(g, protocol.TypeGameStarted, GameStarted{GameID: g.ID, Settings: g.Settings})
		e.startRound(g, t)
		return nil
	})
}

func (e *Engine) startRound(g *gamedata.Game, t *tx) {
	g.CurrentRound++
	g.Round = gamedata.NewRound(g.CurrentRound, g.Settings.SubmitSeconds)
	g.Players.ResetRound(gamedata.RerollsPerRound)
	for _, p := range g.Players.List() {
		g.Round.Templates[p.ID] = e.catalog.Random()
	}
	g.Touch()
	t.lobby = true
	metrics.RoundsStarted.Inc()

	e.timers.Cancel(g.ID, keyReveal)
	e.timers.Cancel(g.ID, keyAdvance)
	gameID := g.ID
	e.timers.Every(gameID, keyTick, e.cfg.TickInterval, func() { e.onTick(gameID) })

	log.Debug().Str("component", "engine").Str("game_id", g.ID).Int("round", g.CurrentRound).Msg("round started")
	e.broadcastState(g)
}

// onTick counts the phase clock down. Reaching zero while submitting
// auto-submits for everyone left and moves on to voting.
func (e *Engine) onTick(gameID string) {
	e.onTimer(gameID, func(g *gamedata.Game, t *tx) error {
		r := g.Round
		if g.Status != gamedata.StatusPlaying || r == nil {
			return nil
		}
		if r.TimeLeft > 0 {
			r.TimeLeft--
		}
		e.broadcast(g, protocol.TypeTimeUpdate, TimeUpdate{Phase: r.Phase, TimeLeft: r.TimeLeft})

		if r.Phase == gamedata.PhaseSubmitting && r.TimeLeft == 0 {
			e.autoSubmit(g)
			e.beginVoting(g)
		}
		return nil
	})
}

// Submit renders the player's captions and records the submission. The
// render happens under the game lock, so no timer can move the phase on
// between rendering and recording.
func (e *Engine) Submit(ctx context.Context, gameID, playerID string, captions []artifacts.Caption) (string, error) {
	var imageURL string
	err := e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		if g.Status != gamedata.StatusPlaying || g.Phase() != gamedata.PhaseSubmitting {
			return ErrWrongPhase
		}
		if p.HasSubmitted || g.Round.Submission(p.ID) != nil {
			return ErrAlreadySubmitted
		}
		tmpl := g.Round.Templates[p.ID]
		if len(captions) == 0 {
			return ErrNoCaptions
		}
		if len(captions) > tmpl.CaptionFields {
			return ErrTooManyCaptions
		}

		url, err := e.generate(ctx, g.ID, tmpl, captions)
		if err != nil {
			return fmt.Errorf("generating meme: %w", err)
		}
		e.record(g, p, tmpl, captions, url, false)
		imageURL = url

		if g.Players.AllSubmitted() {
			e.beginVoting(g)
		}
		return nil
	})
	return imageURL, err
}

func (e *Engine) generate(ctx context.Context, gameID string, tmpl memes.Template, captions []artifacts.Caption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	url, err := e.gen.Generate(ctx, gameID, tmpl, captions)
	metrics.GenerateSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerateFailures.Inc()
	}
	return url, err
}

func (e *Engine) record(g *gamedata.Game, p *players.Player, tmpl memes.Template, captions []artifacts.Caption, url string, auto bool) {
	g.Round.Submissions = append(g.Round.Submissions, &gamedata.Submission{
		PlayerID:      p.ID,
		Name:          p.Name,
		Captions:      slices.Clone(captions),
		ImageURL:      url,
		TemplateURL:   tmpl.URL,
		AutoSubmitted: auto,
	})
	p.HasSubmitted = true
	if url != "" {
		p.LastArtifact = url
	}
	g.Touch()

	source := "player"
	if auto {
		source = "timeout"
	}
	metrics.Submissions.WithLabelValues(source).Inc()

	e.broadcast(g, protocol.TypeMemeSubmitted, MemeSubmitted{
		PlayerID:  p.ID,
		Name:      p.Name,
		Submitted: len(g.Round.Submissions),
		Total:     g.Players.Len(),
	})
}

// autoSubmit records a placeholder for everyone who has not submitted. It
// cannot fail: a render error still records the submission, without an image.
func (e *Engine) autoSubmit(g *gamedata.Game) {
	placeholder := []artifacts.Caption{artifacts.Placeholder()}
	for _, p := range g.Players.List() {
		if p.HasSubmitted {
			continue
		}
		tmpl := g.Round.Templates[p.ID]
		url, err := e.generate(context.Background(), g.ID, tmpl, placeholder)
		if err != nil {
			log.Warn().
				Str("component", "engine").
				Str("game_id", g.ID).
				Str("player_id", p.ID).
				Err(err).
				Msg("placeholder render failed, recording without image")
			url = ""
		}
		e.record(g, p, tmpl, placeholder, url, true)
	}
}

// beginVoting runs at most once per round: it only acts while submitting.
func (e *Engine) beginVoting(g *gamedata.Game) {
	r := g.Round
	if r == nil || r.Phase != gamedata.PhaseSubmitting {
		return
	}
	r.Phase = gamedata.PhaseVoting
	for _, p := range g.Players.List() {
		p.Judged[p.ID] = true
	}
	r.Cursor = -1
	r.VotingInProgress = false

	log.Debug().Str("component", "engine").Str("game_id", g.ID).Int("round", r.Number).Msg("voting started")
	e.broadcast(g, protocol.TypeVotingStarted, VotingStarted{Round: r.Number, Total: len(r.Submissions)})
	e.advanceVoting(g)
}

// Vote records voterID's judgement of the submission owned by targetID.
func (e *Engine) Vote(gameID, voterID, targetID string, kind scoring.VoteKind) error {
	return e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(voterID)
		if p == nil {
			return ErrNotInRoom
		}
		if g.Status != gamedata.StatusPlaying || g.Phase() != gamedata.PhaseVoting {
			return ErrWrongPhase
		}
		if !kind.Valid() {
			return ErrInvalidVote
		}
		s := g.Round.Submission(targetID)
		if s == nil {
			return ErrSubmissionNotFound
		}
		if s.PlayerID == voterID {
			return ErrSelfVote
		}
		if s.HasVoteFrom(voterID) {
			return ErrAlreadyVoted
		}

		s.Votes = append(s.Votes, gamedata.Vote{VoterID: voterID, Kind: kind})
		p.Judged[targetID] = true
		g.Touch()
		metrics.Votes.WithLabelValues(string(kind)).Inc()

		e.broadcast(g, protocol.TypeVoteCast, VoteCast{SubmissionPlayerID: targetID, Votes: len(s.Votes)})
		return nil
	})
}

// endRound scores the round once. ResultsEmitted stops a second caller.
func (e *Engine) endRound(g *gamedata.Game, t *tx) {
	r := g.Round
	if r == nil || r.ResultsEmitted {
		return
	}
	r.ResultsEmitted = true
	r.VotingInProgress = false
	e.timers.Cancel(g.ID, keyReveal)

	r.Phase = gamedata.PhaseResults
	r.TimeLeft = int(e.cfg.ResultsDisplay / time.Second)

	// Every input is taken before any points move.
	winnerID, hasWinner := r.Winner()
	lastPlace := make(map[string]bool)
	for _, s := range r.Submissions {
		if p := g.Players.Get(s.PlayerID); p != nil {
			lastPlace[p.ID] = g.CurrentRound > 1 && g.WasLastPlace(p)
		}
	}
	for _, p := range g.Players.List() {
		if hasWinner && p.ID == winnerID {
			p.WinStreak++
		} else {
			p.WinStreak = 0
		}
	}

	total := g.Players.Len()
	scored := make([]scoring.Result, len(r.Submissions))
	for i, s := range r.Submissions {
		streak := 0
		if p := g.Players.Get(s.PlayerID); p != nil {
			streak = p.WinStreak
		}
		scored[i] = scoring.Calculate(scoring.Input{
			Votes:        s.VoteKinds(),
			TotalPlayers: total,
			IsFirst:      i == 0,
			WasLastPlace: lastPlace[s.PlayerID],
			WinStreak:    streak,
		})
	}

	results := make([]gamedata.RoundResult, len(r.Submissions))
	for i, s := range r.Submissions {
		res := scored[i]
		s.Bonuses = res.Bonuses
		results[i] = gamedata.RoundResult{
			PlayerID:    s.PlayerID,
			Name:        s.Name,
			Captions:    slices.Clone(s.Captions),
			Votes:       gamedata.CountVotes(s.Votes),
			ImageURL:    s.ImageURL,
			TemplateURL: s.TemplateURL,
			Bonuses:     slices.Clone(res.Bonuses),
			Points:      res.Points,
		}

		p := g.Players.Get(s.PlayerID)
		if p == nil {
			continue // left mid-round
		}
		// A bad round never takes points away.
		p.Score += max(res.Points, 0)
		e.send(p.ID, protocol.TypeScoreUpdate, ScoreUpdate{
			Points:     res.Points,
			Bonuses:    slices.Clone(res.Bonuses),
			TotalScore: p.Score,
		})
	}
	g.LastResults = results
	g.Touch()

	final := g.CurrentRound >= g.Settings.TotalRounds
	log.Info().
		Str("component", "engine").
		Str("game_id", g.ID).
		Int("round", r.Number).
		Str("winner", winnerID).
		Bool("final", final).
		Msg("round scored")

	e.broadcast(g, protocol.TypeRoundResults, RoundResults{
		Round:       r.Number,
		TotalRounds: g.Settings.TotalRounds,
		Results:     slices.Clone(results),
		NextIn:      r.TimeLeft,
		Final:       final,
	})
	e.broadcastState(g)
	e.saveState(g)

	gameID, round := g.ID, r.Number
	e.timers.After(gameID, keyAdvance, e.cfg.ResultsDisplay, func() { e.onAdvance(gameID, round) })
}

// onAdvance leaves the results screen for the next round or the final rankings.
func (e *Engine) onAdvance(gameID string, round int) {
	e.onTimer(gameID, func(g *gamedata.Game, t *tx) error {
		if g.Status != gamedata.StatusPlaying || g.Round == nil ||
			g.Round.Number != round || g.Round.Phase != gamedata.PhaseResults {
			return nil
		}
		if g.CurrentRound >= g.Settings.TotalRounds {
			e.finish(g, t)
			return nil
		}
		e.startRound(g, t)
		return nil
	})
}

func (e *Engine) finish(g *gamedata.Game, t *tx) {
	g.Status = gamedata.StatusFinished
	g.FinishedAt = time.Now()
	g.Touch()
	t.lobby = true
	e.timers.Cancel(g.ID, keyTick)
	metrics.GamesFinished.Inc()

	list := g.Players.List()
	entries := make([]scoring.Entry, len(list))
	for i, p := range list {
		entries[i] = scoring.Entry{
			PlayerID:       p.ID,
			Name:           p.Name,
			AvatarURL:      p.AvatarURL,
			WinningMessage: p.WinningMessage,
			Score:          p.Score,
		}
	}
	g.Rankings = scoring.Rankings(entries)
	g.Winner = nil
	if len(g.Rankings) > 0 {
		top := g.Rankings[0]
		g.Winner = &gamedata.Winner{
			PlayerID:       top.PlayerID,
			Name:           top.Name,
			AvatarURL:      top.AvatarURL,
			WinningMessage: top.WinningMessage,
			Score:          top.Score,
		}
	}

	record := db.FinishedGame{
		GameID:     g.ID,
		Code:       g.Code,
		Rounds:     g.Settings.TotalRounds,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
	if g.Winner != nil {
		record.WinnerID = g.Winner.PlayerID
	}
	for _, rk := range g.Rankings {
		record.Players = append(record.Players, db.FinishedPlayer{
			ID:        rk.PlayerID,
			Name:      rk.Name,
			AvatarURL: rk.AvatarURL,
			Score:     rk.Score,
			Rank:      rk.Rank,
		})
	}
	gameID := g.ID
	e.background(func(ctx context.Context) {
		if err := e.stats.RecordFinishedGame(ctx, record); err != nil {
			log.Error().Str("component", "engine").Str("game_id", gameID).Err(err).Msg("recording game stats failed")
		}
	})

	log.Info().Str("component", "engine").Str("game_id", g.ID).Str("winner", record.WinnerID).Msg("game finished")

	var winner *gamedata.Winner
	if g.Winner != nil {
		w := *g.Winner
		winner = &w
	}
	e.broadcast(g, protocol.TypeGameRankings, GameRankings{
		GameID:   g.ID,
		Rankings: slices.Clone(g.Rankings),
		Winner:   winner,
	})
	e.broadcastState(g)
	e.saveState(g)
}

// Reroll swaps the player's template for another random one.
func (e *Engine) Reroll(gameID, playerID string) (RerollResult, error) {
	var res RerollResult
	err := e.run(gameID, func(g *gamedata.Game, t *tx) error {
		p := g.Players.Get(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		if g.Status != gamedata.StatusPlaying || g.Phase() != gamedata.PhaseSubmitting {
			return ErrWrongPhase
		}
		if p.HasSubmitted {
			return ErrAlreadySubmitted
		}
		if p.Rerolls <= 0 {
			return ErrNoRerolls
		}

		next := e.catalog.RandomExcept(g.Round.Templates[p.ID].ID)
		g.Round.Templates[p.ID] = next
		p.Rerolls--
		res = RerollResult{Template: next, RerollsLeft: p.Rerolls}
		e.send(p.ID, protocol.TypeRerollResult, res)
		return nil
	})
	return res, err
}
