package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

const (
	DefaultStartPlace = "noobville"

	// ItemGold is the inventory entry players pay with.
	ItemGold = "gold"

	startingGold = 1000
)

// Stats are a player's combat attributes.
type Stats struct {
	Attack    int `json:"att"`
	Defense   int `json:"def"`
	Dexterity int `json:"dex"`
	Accuracy  int `json:"acc"`
	HP        int `json:"hp"`
	MaxHP     int `json:"maxhp"`
}

// Player is the state record of one connected player, keyed by connection id.
type Player struct {
	ConnectionId string            `json:"connection_id"`
	Place        string            `json:"place"`
	Stats        Stats             `json:"stats"`
	Inventory    map[string]int    `json:"inventory"`
	Equipment    map[string]string `json:"equipment"`
}

// NewPlayer returns the record every player starts with.
func NewPlayer(connId, place string) *Player {
	return &Player{
		ConnectionId: connId,
		Place:        place,
		Stats: Stats{
			Attack:    1,
			Defense:   0,
			Dexterity: 1,
			Accuracy:  2,
			HP:        6,
			MaxHP:     6,
		},
		Inventory: map[string]int{ItemGold: startingGold},
		Equipment: map[string]string{},
	}
}

func (p *Player) Gold() int {
	return p.Inventory[ItemGold]
}

// AddItem adjusts the count of an inventory entry by n, which may be
// negative. Counts never drop below zero.
func (p *Player) AddItem(item string, n int) error {
	if p.Inventory == nil {
		p.Inventory = map[string]int{}
	}
	count := p.Inventory[item] + n
	if count < 0 {
		return fmt.Errorf("%s count would drop to %d", item, count)
	}
	p.Inventory[item] = count
	return nil
}

// Purchase pays amount*price gold for amount of item. Nothing changes when
// the player cannot afford it.
func (p *Player) Purchase(item string, amount, price int) error {
	if amount < 0 || price < 0 {
		return ErrInvalidAmount
	}
	cost := amount * price
	if p.Gold() < cost {
		return ErrInsufficientFunds
	}
	if err := p.AddItem(ItemGold, -cost); err != nil {
		return err
	}
	return p.AddItem(item, amount)
}

func (p *Player) Validate() error {
	el := errors.NewErrorList()

	if p.ConnectionId == "" {
		el.Add(fmt.Errorf("connection_id is required"))
	}
	if p.Place == "" {
		el.Add(fmt.Errorf("place is required"))
	}

	s := p.Stats
	for name, v := range map[string]int{
		"att": s.Attack, "def": s.Defense, "dex": s.Dexterity,
		"acc": s.Accuracy, "hp": s.HP, "maxhp": s.MaxHP,
	} {
		if v < 0 {
			el.Add(fmt.Errorf("%s must not be negative", name))
		}
	}
	if s.HP > s.MaxHP {
		el.Add(fmt.Errorf("hp %d exceeds maxhp %d", s.HP, s.MaxHP))
	}

	for item, n := range p.Inventory {
		if n < 0 {
			el.Add(fmt.Errorf("inventory %s must not be negative", item))
		}
	}

	return el.Err()
}
