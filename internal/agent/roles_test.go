package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/helpdesk/internal/domain"
	"github.com/google/go-cmp/cmp"
)

type fakePersonaModel struct {
	reply string
	err   error
	panic bool
	seen  [][]domain.Entry
}

func (f *fakePersonaModel) Continue(_ context.Context, history []domain.Entry) (string, error) {
	f.seen = append(f.seen, history)
	if f.panic {
		panic("model exploded")
	}
	return f.reply, f.err
}

type fakeJudgeModel struct {
	solved bool
	err    error
	panic  bool
}

func (f *fakeJudgeModel) Judge(context.Context, []domain.Entry, string) (bool, error) {
	if f.panic {
		panic("judge exploded")
	}
	return f.solved, f.err
}

func TestPersonaReplyAppendsPlayerTurn(t *testing.T) {
	model := &fakePersonaModel{reply: "oh that worked"}
	p := NewPersona(model, nil)

	history := []domain.Entry{
		{Role: domain.RoleSystem, Text: "instruction"},
		{Role: domain.RoleCharacter, Text: "help"},
	}
	reply, ok := p.Reply(context.Background(), history, "restart it")
	if !ok || reply != "oh that worked" {
		t.Fatalf("Reply() = %q, %v", reply, ok)
	}

	want := []domain.Entry{
		{Role: domain.RoleSystem, Text: "instruction"},
		{Role: domain.RoleCharacter, Text: "help"},
		{Role: domain.RolePlayer, Text: "restart it"},
	}
	if diff := cmp.Diff(want, model.seen[0]); diff != "" {
		t.Errorf("prompt mismatch (-want +got):\n%s", diff)
	}
	if len(history) != 2 {
		t.Errorf("caller history mutated: %d entries", len(history))
	}
}

func TestPersonaReplyFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		model *fakePersonaModel
	}{
		{name: "error", model: &fakePersonaModel{err: errors.New("timeout")}},
		{name: "empty", model: &fakePersonaModel{reply: ""}},
		{name: "panic", model: &fakePersonaModel{panic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPersona(tt.model, nil)
			reply, ok := p.Reply(context.Background(), nil, "hi")
			if ok || reply != ReplyFallback {
				t.Fatalf("Reply() = %q, %v; want fallback", reply, ok)
			}
			if got := p.ClosingReply(context.Background(), nil, domain.OutcomeLose); got != ClosingFallback {
				t.Fatalf("ClosingReply() = %q; want fallback", got)
			}
		})
	}
}

func TestPersonaClosingReplyUsesOutcomeInstruction(t *testing.T) {
	model := &fakePersonaModel{reply: "thanks!"}
	p := NewPersona(model, nil)

	if got := p.ClosingReply(context.Background(), nil, domain.OutcomeWin); got != "thanks!" {
		t.Fatalf("ClosingReply() = %q", got)
	}
	prompt := model.seen[0]
	last := prompt[len(prompt)-1]
	if last.Role != domain.RoleSystem || last.Text != closingInstruction(domain.OutcomeWin) {
		t.Errorf("expected win closing instruction last, got %+v", last)
	}
}

func TestRefereeIsConservative(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeJudgeModel
		want  bool
	}{
		{name: "solved", model: &fakeJudgeModel{solved: true}, want: true},
		{name: "not solved", model: &fakeJudgeModel{}, want: false},
		{name: "error", model: &fakeJudgeModel{solved: true, err: errors.New("bad json")}, want: false},
		{name: "panic", model: &fakeJudgeModel{panic: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReferee(tt.model, nil)
			if got := r.CheckSolved(context.Background(), nil, "goal"); got != tt.want {
				t.Errorf("CheckSolved() = %v, want %v", got, tt.want)
			}
		})
	}
}
