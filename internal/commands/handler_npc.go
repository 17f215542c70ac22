package commands

import (
	"context"
	"strconv"

	"github.com/theUltimateZoltan/Realms/internal/effect"
	"github.com/theUltimateZoltan/Realms/internal/game"
	"github.com/theUltimateZoltan/Realms/internal/realm"
)

const (
	OptionTalk        = "talk"
	OptionDescription = "description"
	OptionShop        = "shop"
)

func (r *Resolver) npc(_ context.Context, req Request, connId string, requester *game.Player) (effect.Plan, error) {
	if requester == nil {
		return nil, nil
	}

	name, ok := req.Param(0)
	if !ok {
		return nil, NewUserError("talk to whom?")
	}
	npc, ok := r.catalog.NpcsAt(requester.Place)[name]
	if !ok {
		return nil, userErrorf("there is no %s here", name)
	}

	var plan effect.Plan

	option, ok := req.Param(1)
	if !ok {
		plan.Then(effect.Send{Conn: connId, Payload: npc.Options})
		return plan, nil
	}

	params := req.Trailing(2)
	e, err := r.npcOption(npc, connId, option, params)
	if err != nil {
		return nil, err
	}

	plan.Then(
		effect.Log{Message: "npc option attempted", Attrs: []any{"conn", connId, "npc", name, "option", option, "parameters", params}},
		e,
	)
	return plan, nil
}

// npcOption builds the single effect of choosing option on npc.
func (r *Resolver) npcOption(npc *realm.Npc, connId, option string, params []string) (effect.Effect, error) {
	payload, ok := npc.Option(option)
	if !ok {
		return nil, userErrorf("%s is not an option for %s", option, npc.Name)
	}

	switch option {
	case OptionShop:
		return r.shop(npc, connId, params)
	default:
		// talk, description and any other plain option
		return effect.Send{Conn: connId, Payload: payload}, nil
	}
}

func (r *Resolver) shop(npc *realm.Npc, connId string, params []string) (effect.Effect, error) {
	listing, _ := npc.Shop()

	var item string
	if len(params) > 0 {
		item = params[0]
	}
	if _, ok := listing[item]; !ok {
		return nil, userErrorf("%s is not sold here", item)
	}

	if len(params) < 2 {
		return nil, NewUserError(effect.MsgInvalidAmount)
	}
	amount, err := strconv.Atoi(params[1])
	if err != nil || amount < 0 {
		return nil, NewUserError(effect.MsgInvalidAmount)
	}

	it := r.catalog.Item(item)
	if it == nil {
		return nil, userErrorf("%s is not sold here", item)
	}

	return effect.Mutate{
		Target: connId,
		Change: effect.Purchase{Item: item, Amount: amount, UnitPrice: it.Value},
	}, nil
}
