package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/helpdesk/internal/domain"
	"github.com/google/go-cmp/cmp"
)

type fakeCompleter struct {
	reply string
	err   error
	reqs  []CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: `{"solved": true}`, want: true},
		{raw: `  {"solved": false}  `, want: false},
		{raw: `{"solved": "yes"}`, wantErr: true},
		{raw: `{"done": true}`, wantErr: true},
		{raw: `not json`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseVerdict(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, errMalformedVerdict) {
				t.Errorf("parseVerdict(%q) err = %v, want malformed", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseVerdict(%q) = %v, %v", tt.raw, got, err)
		}
	}
}

func TestToMessagesMapsRoles(t *testing.T) {
	got := toMessages([]domain.Entry{
		{Role: domain.RoleSystem, Text: "s"},
		{Role: domain.RoleCharacter, Text: "c"},
		{Role: domain.RolePlayer, Text: "p"},
	})
	want := []Message{
		{Role: MessageRoleSystem, Content: "s"},
		{Role: MessageRoleAssistant, Content: "c"},
		{Role: MessageRoleUser, Content: "p"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toMessages mismatch (-want +got):\n%s", diff)
	}
}

func TestChatPersonaTrimsReply(t *testing.T) {
	c := &fakeCompleter{reply: "  hello there \n"}
	p := NewChatPersona(c, "m1")
	got, err := p.Continue(context.Background(), []domain.Entry{{Role: domain.RoleSystem, Text: "x"}})
	if err != nil || got != "hello there" {
		t.Fatalf("Continue() = %q, %v", got, err)
	}
	if c.reqs[0].Model != "m1" || c.reqs[0].JSON {
		t.Errorf("unexpected request: %+v", c.reqs[0])
	}
}

func TestChatJudgeSendsGoalAndTranscript(t *testing.T) {
	c := &fakeCompleter{reply: `{"solved": true}`}
	j := NewChatJudge(c, "judge")
	solved, err := j.Judge(context.Background(), []domain.Entry{
		{Role: domain.RoleCharacter, Text: "my wifi is down"},
		{Role: domain.RolePlayer, Text: "unplug the router"},
	}, "reboot the router")
	if err != nil || !solved {
		t.Fatalf("Judge() = %v, %v", solved, err)
	}

	req := c.reqs[0]
	if !req.JSON {
		t.Error("expected JSON mode")
	}
	user := req.Messages[1].Content
	for _, want := range []string{"reboot the router", "unplug the router", `"role": "player"`} {
		if !strings.Contains(user, want) {
			t.Errorf("referee prompt missing %q:\n%s", want, user)
		}
	}
}

func TestChatJudgePropagatesErrors(t *testing.T) {
	j := NewChatJudge(&fakeCompleter{err: errors.New("down")}, "judge")
	if _, err := j.Judge(context.Background(), nil, "goal"); err == nil {
		t.Fatal("expected error")
	}
}
