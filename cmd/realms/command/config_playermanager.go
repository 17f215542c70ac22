package command

import (
	"github.com/theUltimateZoltan/Realms/internal/game"
)

type PlayerManagerConfig struct {
	StartPlace string `json:"start_place"`
}

func (c *PlayerManagerConfig) validate() error {
	return nil
}

func (c *PlayerManagerConfig) startPlace() string {
	if c.StartPlace == "" {
		return game.DefaultStartPlace
	}
	return c.StartPlace
}
