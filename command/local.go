package command

import (
	"context"
	"errors"
	"strings"
)

// ErrUnrecognized is returned by parsers that only accept known keywords.
var ErrUnrecognized = errors.New("unrecognized command")

type LocalCommandParser struct {
	NextKeywords   []string
	BackKeywords   []string
	SubmitKeywords []string
	ResetKeywords  []string
	QuitKeywords   []string
	// Strict makes unknown input an error instead of None, so a
	// FallbackCommandParser can try the next parser.
	Strict bool
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		NextKeywords:   []string{"next", "n", "continue", "forward"},
		BackKeywords:   []string{"back", "b", "previous", "prev"},
		SubmitKeywords: []string{"submit", "create", "done", "finish"},
		ResetKeywords:  []string{"reset", "restart", "start over"},
		QuitKeywords:   []string{"quit", "q", "exit"},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(input)), " ")
	normalized = strings.TrimPrefix(normalized, "/")
	for _, group := range []struct {
		cmd      Command
		keywords []string
	}{
		{Next, p.NextKeywords},
		{Back, p.BackKeywords},
		{Submit, p.SubmitKeywords},
		{Reset, p.ResetKeywords},
		{Quit, p.QuitKeywords},
	} {
		for _, keyword := range group.keywords {
			if normalized == keyword {
				return group.cmd, nil
			}
		}
	}
	if p.Strict {
		return None, ErrUnrecognized
	}
	return None, nil
}

type FallbackCommandParser struct {
	parsers []Parser
}

func NewFallbackCommandParser(parsers ...Parser) *FallbackCommandParser {
	return &FallbackCommandParser{parsers: parsers}
}

func (p *FallbackCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return None, lastErr
}

// Dispatch applies cmd to nav and reports whether the wizard moved. Quit and
// None never touch the wizard.
func Dispatch(ctx context.Context, nav Navigator, cmd Command) bool {
	switch cmd {
	case Next:
		return nav.Next(ctx)
	case Back:
		return nav.Back(ctx)
	case Submit:
		return nav.Submit(ctx)
	case Reset:
		nav.Reset(ctx)
		return true
	default:
		return false
	}
}
