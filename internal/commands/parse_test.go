package commands

import (
	"context"
	"slices"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		raw       string
		expAction string
		expParams []string
	}{
		"trailing delimiter": {
			raw:       "travel#forest#",
			expAction: "travel",
			expParams: []string{"forest"},
		},
		"no trailing delimiter": {
			raw:       "npc#merchant#shop#potion#10",
			expAction: "npc",
			expParams: []string{"merchant", "shop", "potion", "10"},
		},
		"shop with trailing delimiter": {
			raw:       "npc#merchant#shop#potion#10#",
			expAction: "npc",
			expParams: []string{"merchant", "shop", "potion", "10"},
		},
		"action only": {
			raw:       "browse",
			expAction: "browse",
			expParams: []string{},
		},
		"action with delimiter": {
			raw:       "browse#",
			expAction: "browse",
			expParams: []string{},
		},
		"empty input": {
			raw:       "",
			expAction: "",
			expParams: []string{},
		},
		"empty middle segment kept": {
			raw:       "npc##talk#",
			expAction: "npc",
			expParams: []string{"", "talk"},
		},
		"spaces inside message": {
			raw:       "talk#hello there#\r\n",
			expAction: "talk",
			expParams: []string{"hello there"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := Parse(context.Background(), tt.raw)
			testutil.AssertEqual(t, "action", req.Action, tt.expAction)
			if !slices.Equal(req.Trailing(0), tt.expParams) {
				t.Errorf("expected params %q, got %q", tt.expParams, req.Trailing(0))
			}
		})
	}
}

func TestRequest_Param(t *testing.T) {
	req := Parse(context.Background(), "spec#xyz#")

	tests := map[string]struct {
		index     int
		expValue  string
		expExists bool
	}{
		"first":    {index: 0, expValue: "xyz", expExists: true},
		"past end": {index: 1, expValue: "", expExists: false},
		"negative": {index: -1, expValue: "", expExists: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := req.Param(tt.index)
			testutil.AssertEqual(t, "value", v, tt.expValue)
			testutil.AssertEqual(t, "exists", ok, tt.expExists)
		})
	}
}

func TestRequest_Trailing(t *testing.T) {
	req := Parse(context.Background(), "npc#merchant#shop#potion#10#")

	tests := map[string]struct {
		index int
		exp   []string
	}{
		"from option":  {index: 1, exp: []string{"shop", "potion", "10"}},
		"after option": {index: 2, exp: []string{"potion", "10"}},
		"last":         {index: 3, exp: []string{"10"}},
		"past end":     {index: 7, exp: []string{}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := req.Trailing(tt.index)
			if !slices.Equal(got, tt.exp) {
				t.Errorf("expected %q, got %q", tt.exp, got)
			}
		})
	}

	// callers cannot modify the request through the returned slice
	req.Trailing(0)[0] = "changed"
	v, _ := req.Param(0)
	testutil.AssertEqual(t, "param unchanged", v, "merchant")
}
