package commands

import (
	"context"
	"log/slog"
	"strings"
)

// Delimiter separates the action and parameters of a raw command.
const Delimiter = "#"

// Request is a parsed command: an action keyword and its positional
// parameters.
type Request struct {
	Action string
	params []string
}

// Parse splits raw command text of the form "action#p0#p1#...#". A single
// empty final segment left by the trailing delimiter is dropped. Parse never
// fails; missing parameters show up as absent.
func Parse(ctx context.Context, raw string) Request {
	tokens := strings.Split(strings.TrimSpace(raw), Delimiter)

	params := tokens[1:]
	if n := len(params); n > 0 && params[n-1] == "" {
		params = params[:n-1]
	}

	req := Request{Action: tokens[0], params: params}
	slog.InfoContext(ctx, "request received", "action", req.Action, "parameters", req.Trailing(0))
	return req
}

// Param returns the parameter at index i and whether it is present.
func (r Request) Param(i int) (string, bool) {
	if i < 0 || i >= len(r.params) {
		return "", false
	}
	return r.params[i], true
}

// Trailing returns the parameters from index i on.
func (r Request) Trailing(i int) []string {
	if i < 0 {
		i = 0
	}
	if i >= len(r.params) {
		return []string{}
	}
	out := make([]string, len(r.params)-i)
	copy(out, r.params[i:])
	return out
}
