package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/realm"
)

// ActionFunc builds the plan for one action. requester is nil when the
// requesting connection has no player record.
type ActionFunc func(ctx context.Context, req Request, connId string, requester *game.Player) (effect.Plan, error)

// Resolver turns requests into plans against one catalog and the current
// player records. It never changes state itself.
type Resolver struct {
	catalog *realm.Catalog
	players *game.Players
	actions map[string]ActionFunc
}

func NewResolver(catalog *realm.Catalog, players *game.Players) *Resolver {
	r := &Resolver{
		catalog: catalog,
		players: players,
		actions: make(map[string]ActionFunc),
	}

	r.mustRegister(ActionTalk, r.talk)
	r.mustRegister(ActionTravel, r.travel)
	r.mustRegister(ActionSpec, r.spec)
	r.mustRegister(ActionBrowse, r.browse)
	r.mustRegister(ActionNpc, r.npc)
	r.mustRegister(ActionHit, r.hit)
	return r
}

const (
	ActionTalk   = "talk"
	ActionTravel = "travel"
	ActionSpec   = "spec"
	ActionBrowse = "browse"
	ActionNpc    = "npc"
	ActionHit    = "hit"
)

// Register adds or replaces the plan builder for an action keyword.
func (r *Resolver) Register(name string, fn ActionFunc) error {
	if name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("action %q: func cannot be nil", name)
	}
	r.actions[name] = fn
	return nil
}

func (r *Resolver) mustRegister(name string, fn ActionFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Handles reports whether action is a registered keyword.
func (r *Resolver) Handles(action string) bool {
	_, ok := r.actions[action]
	return ok
}

// Actions lists the registered action keywords.
func (r *Resolver) Actions() []string {
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the plan for req issued by connId. Unknown actions resolve
// to an empty plan. A *UserError means the request was rejected and the
// message should be shown to the player.
func (r *Resolver) Resolve(ctx context.Context, req Request, connId string) (effect.Plan, error) {
	fn, ok := r.actions[req.Action]
	if !ok {
		return nil, nil
	}

	requester, err := r.players.Get(ctx, connId)
	if errors.Is(err, game.ErrPlayerNotFound) {
		requester = nil
	} else if err != nil {
		return nil, err
	}

	return fn(ctx, req, connId, requester)
}
