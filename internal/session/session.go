// Package session owns the game state of one match: the turn state machine on top of the rules engine,
// the bot driver for local play and the reconciliation with relay snapshots.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/royal-ur/internal/apperror"
	"github.com/rocketscienceinc/royal-ur/internal/dice"
	"github.com/rocketscienceinc/royal-ur/internal/entity"
	"github.com/rocketscienceinc/royal-ur/internal/protocol"
	"github.com/rocketscienceinc/royal-ur/internal/scheduler"
	"github.com/rocketscienceinc/royal-ur/internal/ur"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

const (
	timerSkip = "skip"
	timerBot  = "bot"
)

type Timing struct {
	BotRollDelay time.Duration
	BotMoveDelay time.Duration
	NoMovesDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		BotRollDelay: 800 * time.Millisecond,
		BotMoveDelay: 1500 * time.Millisecond,
		NoMovesDelay: time.Second,
	}
}

type roller interface {
	Roll() int
}

type bot interface {
	GetMove(state *entity.GameState, rollValue int) (*entity.MoveAction, error)
}

// MoveSender receives every move committed locally together with the state it produced.
type MoveSender func(move entity.MoveAction, state *entity.GameState)

// StatePublisher receives local transitions that are not moves: rolls and skipped turns.
type StatePublisher func(state *entity.GameState)

// Listener is notified after every state change, local or from the relay.
type Listener func(state *entity.GameState)

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithRoller(r roller) Option {
	return func(s *Session) {
		s.roller = r
	}
}

func WithTiming(timing Timing) Option {
	return func(s *Session) {
		s.timing = timing
	}
}

// WithBot lets the bot play color on timers.
func WithBot(b bot, color entity.Color) Option {
	return func(s *Session) {
		s.bot = b
		s.botColor = color
	}
}

// WithSequenceCheck drops relay snapshots older than the local state.
func WithSequenceCheck() Option {
	return func(s *Session) {
		s.sequenceCheck = true
	}
}

type Session struct {
	logger *slog.Logger
	roller roller
	timing Timing

	bot      bot
	botColor entity.Color

	sequenceCheck bool

	timers *scheduler.Scheduler

	mu         sync.Mutex
	matchID    string
	state      *entity.GameState
	validMoves []entity.MoveAction
	presences  map[string]struct{}
	status     ConnectionStatus
	sendMove   MoveSender
	publish    StatePublisher
	listeners  []Listener
	// epoch changes whenever the state is replaced wholesale, so timers armed before are ignored.
	epoch uint64
}

func New(opts ...Option) *Session {
	session := &Session{
		logger:    slog.Default(),
		roller:    dice.NewRoller(uint64(time.Now().UnixNano())),
		timing:    DefaultTiming(),
		timers:    scheduler.New(),
		state:     ur.NewGame(),
		presences: make(map[string]struct{}),
		status:    StatusDisconnected,
	}

	for _, opt := range opts {
		opt(session)
	}

	session.logger = session.logger.With("component", "session")

	return session
}

// InitGame starts a fresh match under matchID.
func (that *Session) InitGame(matchID string) {
	that.timers.CancelAll()

	that.mu.Lock()
	that.matchID = matchID
	that.state = ur.NewGame()
	that.validMoves = nil
	that.presences = make(map[string]struct{})
	that.status = StatusDisconnected
	that.epoch++
	that.driveBotLocked()
	notify := that.changedLocked()
	that.mu.Unlock()

	that.logger.Info("game initialised", "matchID", matchID)

	notify()
}

func (that *Session) SetMatchID(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.matchID = matchID
}

// Reset discards the match and cancels every pending timer.
func (that *Session) Reset() {
	that.timers.CancelAll()

	that.mu.Lock()
	that.matchID = ""
	that.state = ur.NewGame()
	that.validMoves = nil
	that.presences = make(map[string]struct{})
	that.status = StatusDisconnected
	that.sendMove = nil
	that.publish = nil
	that.epoch++
	notify := that.changedLocked()
	that.mu.Unlock()

	notify()
}

// Close tears the session down; no timer fires afterwards.
func (that *Session) Close() {
	that.timers.Close()
}

// Roll throws the dice for the side to move. It reports false when rolling is not allowed now.
func (that *Session) Roll() bool {
	that.mu.Lock()
	after, ok := that.rollLocked()
	that.mu.Unlock()

	after()

	return ok
}

// MakeMove commits action when it is one of the pending legal moves. Anything else is ignored.
func (that *Session) MakeMove(action entity.MoveAction) bool {
	that.mu.Lock()
	after, ok := that.makeMoveLocked(action)
	that.mu.Unlock()

	after()

	return ok
}

func (that *Session) rollLocked() (func(), bool) {
	if !that.state.IsRolling() {
		return func() {}, false
	}

	rollValue := that.roller.Roll()

	next, moves, err := ur.Roll(that.state, rollValue)
	if err != nil {
		that.logger.Debug("roll rejected", "error", err)
		return func() {}, false
	}

	that.state = next
	that.validMoves = moves

	if len(moves) == 0 {
		that.scheduleLocked(timerSkip, that.timing.NoMovesDelay, that.skipLocked)
	} else {
		that.driveBotLocked()
	}

	that.logger.Debug("rolled", "turn", next.CurrentTurn, "roll", rollValue, "moves", len(moves))

	publish := that.publishLocked()
	notify := that.changedLocked()

	return func() {
		publish()
		notify()
	}, true
}

func (that *Session) makeMoveLocked(action entity.MoveAction) (func(), bool) {
	log := that.logger.With("method", "makeMove")

	next, err := ur.ApplyMove(that.state, action)
	if err != nil {
		if errors.Is(err, apperror.ErrIllegalMove) || errors.Is(err, apperror.ErrWrongPhase) || errors.Is(err, apperror.ErrGameFinished) {
			log.Debug("move ignored", "move", action.String(), "error", err)
			return func() {}, false
		}

		log.Error("failed to apply move", "move", action.String(), "error", err)
		return func() {}, false
	}

	that.state = next
	that.validMoves = nil
	that.driveBotLocked()

	if next.Winner != nil {
		log.Info("game finished", "winner", *next.Winner)
	}

	send := that.sendMove
	sent := next.Clone()
	notify := that.changedLocked()

	return func() {
		if send != nil {
			send(action, sent)
		}
		notify()
	}, true
}

// SetGameStateFromServer replaces the local state with a relay snapshot. The relay wins; nothing is merged.
func (that *Session) SetGameStateFromServer(state *entity.GameState) error {
	if state == nil {
		return fmt.Errorf("%w: empty snapshot", apperror.ErrMalformedPayload)
	}

	that.mu.Lock()

	if that.sequenceCheck && state.Seq != 0 && state.Seq < that.state.Seq {
		local := that.state.Seq
		that.mu.Unlock()
		return fmt.Errorf("%w: remote seq %d, local seq %d", apperror.ErrStaleSnapshot, state.Seq, local)
	}

	that.timers.Cancel(timerSkip)
	that.timers.Cancel(timerBot)

	that.state = state.Clone()
	that.validMoves = nil
	if that.state.IsMoving() && that.state.RollValue != nil {
		that.validMoves = ur.GetValidMoves(that.state, *that.state.RollValue)
	}
	that.epoch++

	if that.state.IsMoving() && len(that.validMoves) == 0 && that.drivesLocked(that.state.CurrentTurn) {
		that.scheduleLocked(timerSkip, that.timing.NoMovesDelay, that.skipLocked)
	}
	that.driveBotLocked()

	notify := that.changedLocked()
	that.mu.Unlock()

	notify()

	return nil
}

// drivesLocked - reports whether this client plays the color's turns: every color offline, the bot's color online.
func (that *Session) drivesLocked(color entity.Color) bool {
	if that.sendMove == nil {
		return true
	}

	return that.bot != nil && that.botColor == color
}

// ApplyMatchData applies a raw relay broadcast. Malformed payloads leave the state untouched.
func (that *Session) ApplyMatchData(raw []byte) error {
	state, err := protocol.ParseSnapshot(raw)
	if err != nil {
		that.logger.Debug("ignoring relay payload", "error", err)
		return err
	}

	return that.SetGameStateFromServer(state)
}

// ApplyJoinMetadata resynchronises from the snapshot embedded in match metadata after a rejoin.
func (that *Session) ApplyJoinMetadata(metadata string) error {
	if metadata == "" {
		return nil
	}

	return that.ApplyMatchData([]byte(metadata))
}

func (that *Session) UpdatePresences(event entity.PresenceEvent) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, presence := range event.Joins {
		that.presences[presence.UserID] = struct{}{}
	}

	for _, presence := range event.Leaves {
		delete(that.presences, presence.UserID)
	}
}

func (that *Session) Presences() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, 0, len(that.presences))
	for id := range that.presences {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (that *Session) SetConnectionStatus(status ConnectionStatus) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.status = status
}

func (that *Session) ConnectionStatus() ConnectionStatus {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// SetMoveSender switches the session into relayed mode. A nil sender returns it to local mode.
func (that *Session) SetMoveSender(sender MoveSender) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sendMove = sender
}

func (that *Session) SetStatePublisher(publisher StatePublisher) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.publish = publisher
}

func (that *Session) Subscribe(listener Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, listener)
}

func (that *Session) MatchID() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.matchID
}

// State returns a copy of the current state.
func (that *Session) State() *entity.GameState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state.Clone()
}

func (that *Session) ValidMoves() []entity.MoveAction {
	that.mu.Lock()
	defer that.mu.Unlock()

	return slices.Clone(that.validMoves)
}

func (that *Session) Winner() *entity.Color {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state.Winner == nil {
		return nil
	}

	winner := *that.state.Winner
	return &winner
}

// skipLocked - passes the turn after a roll without moves.
func (that *Session) skipLocked() func() {
	next, err := ur.SkipTurn(that.state)
	if err != nil {
		that.logger.Debug("skip ignored", "error", err)
		return func() {}
	}

	that.state = next
	that.validMoves = nil
	that.driveBotLocked()

	that.logger.Debug("turn skipped", "turn", next.CurrentTurn)

	publish := that.publishLocked()
	notify := that.changedLocked()

	return func() {
		publish()
		notify()
	}
}

// driveBotLocked - arms the bot timer when it is the bot's turn.
func (that *Session) driveBotLocked() {
	if that.bot == nil || that.state.IsEnded() || that.state.CurrentTurn != that.botColor {
		return
	}

	switch {
	case that.state.IsRolling():
		that.scheduleLocked(timerBot, that.timing.BotRollDelay, func() func() {
			after, _ := that.rollLocked()
			return after
		})
	case that.state.IsMoving() && len(that.validMoves) > 0:
		that.scheduleLocked(timerBot, that.timing.BotMoveDelay, func() func() {
			move, err := that.bot.GetMove(that.state, *that.state.RollValue)
			if err != nil {
				that.logger.Error("bot failed to choose a move", "error", err)
				return func() {}
			}

			after, _ := that.makeMoveLocked(*move)
			return after
		})
	}
}

// scheduleLocked arms a timer whose task runs under the session lock and only if
// neither the state nor the epoch changed in between. The task returns work to run after unlocking.
func (that *Session) scheduleLocked(name string, delay time.Duration, task func() func()) {
	epoch, seq := that.epoch, that.state.Seq

	that.timers.Schedule(name, delay, func() {
		that.mu.Lock()
		if that.epoch != epoch || that.state.Seq != seq {
			that.mu.Unlock()
			return
		}
		after := task()
		that.mu.Unlock()

		after()
	})
}

func (that *Session) publishLocked() func() {
	publish := that.publish
	if publish == nil {
		return func() {}
	}

	state := that.state.Clone()
	return func() {
		publish(state)
	}
}

func (that *Session) changedLocked() func() {
	if len(that.listeners) == 0 {
		return func() {}
	}

	listeners := slices.Clone(that.listeners)
	state := that.state.Clone()

	return func() {
		for _, listener := range listeners {
			listener(state)
		}
	}
}
