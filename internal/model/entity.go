package model

// DimensionOverworld is the default dimension id.
const DimensionOverworld = "minecraft:overworld"

// EntityRef identifies an entity in a host event.
type EntityRef struct {
	ID     string `json:"id"`
	TypeID string `json:"typeId"`
	Name   string `json:"name,omitempty"` // only players carry a name
}

// IsType reports whether the entity has the given type id.
func (e *EntityRef) IsType(typeID string) bool {
	return e != nil && e.TypeID == typeID
}

// KillEvent is built from one "entity died" notification. It is not stored.
type KillEvent struct {
	Victim       EntityRef
	VictimIsBaby bool
	Location     Location
	Dimension    string
	// Killer is the entity credited by the damage source; nil for
	// environmental deaths.
	Killer *EntityRef
}
