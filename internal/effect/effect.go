package effect

import "github.com/theUltimateZoltan/Realms/internal/realm"

// Effect is one step of a Plan. The set of effects is closed; the Executor
// knows how to run each of them.
type Effect interface {
	isEffect()
}

// Log writes a structured log line.
type Log struct {
	Message string
	Attrs   []any
}

// Send pushes Payload to one connection. []byte payloads are sent as-is,
// anything else is JSON encoded.
type Send struct {
	Conn    string
	Payload any
}

// Broadcast pushes Payload to every player in Place at the time it runs.
type Broadcast struct {
	Place   string
	Payload any
}

// Mutate applies Change to the record identified by Target.
type Mutate struct {
	Target string
	Change Change
}

func (Log) isEffect()       {}
func (Send) isEffect()      {}
func (Broadcast) isEffect() {}
func (Mutate) isEffect()    {}

// Change is a state change carried by Mutate.
type Change interface {
	isChange()
}

// MoveTo moves the target player to Place.
type MoveTo struct {
	Place string
}

// Purchase buys Amount of Item at UnitPrice each for the target player and
// acknowledges the outcome to them.
type Purchase struct {
	Item      string
	Amount    int
	UnitPrice int
}

// Disengage releases every enemy in Place aggroed on the target player.
type Disengage struct {
	Place string
}

// TickSpawn advances the spawn cooldown of Slot.
type TickSpawn struct {
	Slot realm.Slot
}

// Aggro sets Victim as the aggro target of Slot.
type Aggro struct {
	Slot   realm.Slot
	Victim string
}

func (MoveTo) isChange()    {}
func (Purchase) isChange()  {}
func (Disengage) isChange() {}
func (TickSpawn) isChange() {}
func (Aggro) isChange()     {}

// SystemNotice is the payload of every message the server itself sends to a
// player.
type SystemNotice struct {
	Message string `json:"SYS"`
}

// Notice builds a Send of a SystemNotice.
func Notice(conn, message string) Send {
	return Send{Conn: conn, Payload: SystemNotice{Message: message}}
}

// Plan is an ordered list of effects. The zero Plan does nothing.
type Plan []Effect

// Then appends effects to the plan.
func (p *Plan) Then(effects ...Effect) *Plan {
	*p = append(*p, effects...)
	return p
}
