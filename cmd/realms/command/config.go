package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval  string              `json:"tick_interval"`
	Realm         RealmConfig         `json:"realm"`
	Storage       StorageConfig       `json:"storage"`
	Nats          NatsConfig          `json:"nats"`
	PlayerManager PlayerManagerConfig `json:"player_manager"`
	Listeners     []ListenerConfig    `json:"listeners"`
	Metrics       MetricsConfig       `json:"metrics"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if _, err := c.tickLength(); err != nil {
		el.Add(err)
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Realm.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.PlayerManager.validate())
	el.Add(c.Metrics.validate())

	return el.Err()
}

// tickLength parses tick_interval. An empty value leaves the driver default.
func (c *Config) tickLength() (time.Duration, error) {
	if c.TickInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing tick_interval: %w", err)
	}
	if d < 100*time.Millisecond {
		return 0, fmt.Errorf("tick_interval must be at least 100ms")
	}
	return d, nil
}
