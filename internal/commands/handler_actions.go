package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
)

const (
	MsgTargetNotConnected = "target not connected"
	MsgCombatUnsupported  = "combat is not yet supported"
)

func (r *Resolver) talk(_ context.Context, req Request, connId string, requester *game.Player) (effect.Plan, error) {
	if requester == nil {
		return nil, nil
	}
	msg, ok := req.Param(0)
	if !ok || msg == "" {
		return nil, NewUserError("talk needs a message")
	}

	var plan effect.Plan
	plan.Then(
		effect.Log{Message: "player is talking", Attrs: []any{"conn", connId, "place", requester.Place}},
		effect.Broadcast{Place: requester.Place, Payload: map[string]string{"FROM": connId, "TALK": msg}},
	)
	return plan, nil
}

func (r *Resolver) travel(_ context.Context, req Request, connId string, requester *game.Player) (effect.Plan, error) {
	if requester == nil {
		return nil, nil
	}
	dest, _ := req.Param(0)

	var plan effect.Plan
	if !r.catalog.CanTravel(requester.Place, dest) {
		plan.Then(effect.Notice(connId, fmt.Sprintf("cannot travel to %s from here", dest)))
		return plan, nil
	}

	plan.Then(
		effect.Mutate{Target: connId, Change: effect.MoveTo{Place: dest}},
		effect.Mutate{Target: connId, Change: effect.Disengage{Place: requester.Place}},
		effect.Send{Conn: connId, Payload: r.catalog.Place(dest).Description},
	)
	return plan, nil
}

func (r *Resolver) spec(ctx context.Context, req Request, connId string, _ *game.Player) (effect.Plan, error) {
	var plan effect.Plan

	target, ok := req.Param(0)
	if !ok {
		plan.Then(effect.Notice(connId, MsgTargetNotConnected))
		return plan, nil
	}

	p, err := r.players.Get(ctx, target)
	if errors.Is(err, game.ErrPlayerNotFound) {
		plan.Then(effect.Notice(connId, MsgTargetNotConnected))
		return plan, nil
	}
	if err != nil {
		return nil, err
	}

	plan.Then(effect.Send{Conn: connId, Payload: p})
	return plan, nil
}

func (r *Resolver) browse(_ context.Context, _ Request, connId string, requester *game.Player) (effect.Plan, error) {
	if requester == nil {
		return nil, nil
	}
	place := r.catalog.Place(requester.Place)
	if place == nil {
		return nil, NewUserError("you are nowhere")
	}

	var plan effect.Plan
	plan.Then(
		effect.Log{Message: "player is browsing", Attrs: []any{"conn", connId, "place", place.Name, "description", place.Description}},
		effect.Send{Conn: connId, Payload: place.Description},
	)
	return plan, nil
}

func (r *Resolver) hit(_ context.Context, _ Request, connId string, _ *game.Player) (effect.Plan, error) {
	var plan effect.Plan
	plan.Then(effect.Notice(connId, MsgCombatUnsupported))
	return plan, nil
}
