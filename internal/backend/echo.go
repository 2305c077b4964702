package backend

import (
	"context"
	"time"
)

// Echo returns the prompt it was given, rendered through its template when
// useTemplate is set. It needs no server and is handy for checking what a
// model would actually receive.
type Echo struct {
	system   string
	template *Template
	delay    time.Duration
}

// NewEcho creates an Echo backend. tmpl may be nil; delay simulates a slow
// model.
func NewEcho(system string, tmpl *Template, delay time.Duration) *Echo {
	return &Echo{system: system, template: tmpl, delay: delay}
}

func (e *Echo) Name() string {
	return "echo"
}

func (e *Echo) Generate(ctx context.Context, prompt string, useTemplate bool) (string, error) {
	if e.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.delay):
		}
	}
	if useTemplate && e.template != nil {
		return e.template.Render(e.system, prompt), nil
	}
	return prompt, nil
}

func (e *Echo) Close() error {
	return nil
}
