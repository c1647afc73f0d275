package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/helpdesk/internal/domain"
)

const (
	// ReplyFallback is spoken when the persona model fails mid-game.
	ReplyFallback = "uhhh what? try again?"
	// ClosingFallback is spoken when the final message cannot be generated.
	ClosingFallback = "fine, whatever. i'm leaving."
)

var (
	errCapabilityPanic = errors.New("capability panicked")
	errEmptyReply      = errors.New("empty reply")
)

// Persona is the in-character responder. It never fails: model errors turn into
// fixed fallback lines so the turn still completes.
type Persona struct {
	model  PersonaModel
	logger *slog.Logger
}

// NewPersona wraps a persona model.
func NewPersona(model PersonaModel, logger *slog.Logger) *Persona {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persona{model: model, logger: logger}
}

// Reply answers playerText given the responder view of the log. ok is false when
// the fallback line was used.
func (p *Persona) Reply(ctx context.Context, history []domain.Entry, playerText string) (string, bool) {
	prompt := append(cloneEntries(history), domain.Entry{Role: domain.RolePlayer, Text: playerText})
	reply, err := guard(func() (string, error) { return p.model.Continue(ctx, prompt) })
	if err == nil && reply == "" {
		err = errEmptyReply
	}
	if err != nil {
		p.logger.Warn("Persona reply failed, using fallback", "error", err)
		return ReplyFallback, false
	}
	return reply, true
}

// ClosingReply produces the final goodbye for outcome. The closing instruction is
// not persisted anywhere.
func (p *Persona) ClosingReply(ctx context.Context, history []domain.Entry, outcome domain.Outcome) string {
	prompt := append(cloneEntries(history), domain.Entry{Role: domain.RoleSystem, Text: closingInstruction(outcome)})
	reply, err := guard(func() (string, error) { return p.model.Continue(ctx, prompt) })
	if err == nil && reply == "" {
		err = errEmptyReply
	}
	if err != nil {
		p.logger.Warn("Persona closing reply failed, using fallback", "outcome", outcome.String(), "error", err)
		return ClosingFallback
	}
	return reply
}

// Referee judges transcripts. Any failure counts as "not solved" so a broken
// judgment can never hand out a win.
type Referee struct {
	model  JudgeModel
	logger *slog.Logger
}

// NewReferee wraps a judge model.
func NewReferee(model JudgeModel, logger *slog.Logger) *Referee {
	if logger == nil {
		logger = slog.Default()
	}
	return &Referee{model: model, logger: logger}
}

// CheckSolved reports whether the last player entry of transcript met goal.
func (r *Referee) CheckSolved(ctx context.Context, transcript []domain.Entry, goal string) bool {
	solved, err := guard(func() (bool, error) { return r.model.Judge(ctx, transcript, goal) })
	if err != nil {
		r.logger.Warn("Referee check failed, treating as not solved", "error", err)
		return false
	}
	return solved
}

func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", errCapabilityPanic, rec)
		}
	}()
	return fn()
}

func cloneEntries(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, len(entries), len(entries)+1)
	copy(out, entries)
	return out
}
