// Package command implements the chat command surface for the villager loot
// settings: baby_drop, bd_aap, nbt_drop, info and help.
package command

import "github.com/udisondev/villagerloot/internal/model"

// AccessLevel describes a host permission level.
// Level 0 = visitor, 1 = member, 2 = operator, 3 = custom.
type AccessLevel struct {
	Level      int32
	Name       string
	IsOperator bool // may change world-wide settings
}

var defaultAccessLevels = map[int32]*AccessLevel{
	0: {Level: 0, Name: "Visitor"},
	1: {Level: 1, Name: "Member"},
	2: {Level: 2, Name: "Operator", IsOperator: true},
	3: {Level: 3, Name: "Custom"},
}

// GetAccessLevel returns AccessLevel for the given level value.
// Unknown levels inherit from the highest known level below them.
// Negative levels return nil.
func GetAccessLevel(level int32) *AccessLevel {
	if level < 0 {
		return nil
	}

	if al, ok := defaultAccessLevels[level]; ok {
		return al
	}

	var best *AccessLevel
	for _, al := range defaultAccessLevels {
		if al.Level <= level && (best == nil || al.Level > best.Level) {
			best = al
		}
	}
	return best
}

// IsOperator reports whether p may change world-wide settings.
func IsOperator(p *model.Player) bool {
	if p == nil {
		return false
	}
	al := GetAccessLevel(p.AccessLevel())
	return al != nil && al.IsOperator
}
