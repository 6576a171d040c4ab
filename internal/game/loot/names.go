package loot

// UnknownItem is shown for a token missing from the display name table.
// Correct data never produces it.
const UnknownItem = "unknown item"

// NameSeparator joins several names dropped by one tier.
const NameSeparator = ", "

var displayNames = map[ItemToken]string{
	// common
	"arrow":         "Enchanted Arrows",
	"spyglass":      "Spyglass",
	"hanabi":        "Firework Crate",
	"elytra":        "Elytra",
	"fishing_hook1": "Fishing Rod of Luck",
	"fishing_hook2": "Fishing Rod of Lure",

	// rare
	"shield":   "Enchanted Shield",
	"trident1": "Riptide Trident",
	"trident2": "Loyalty Trident",

	// epic
	"powder_snow_boots":  "Powder Snow Boots",
	"piglin_helmet":      "Piglin Helmet",
	"frost_walker_boots": "Frost Walker Boots",
	"piglin_chestplate":  "Piglin Chestplate",

	// legendary
	"saikyou_bow":   "Ancient Super Bow",
	"saikyou_sword": "Infinity Blade",

	// mythic armor
	"saikyou_helmet":     "Mythic Helmet",
	"saikyou_chestplate": "Mythic Chestplate",
	"saikyou_leggings":   "Mythic Leggings",
	"saikyou_boots":      "Mythic Boots",

	// mythic box
	"inventory_box":   "Inventory Box",
	"ender_chest_box": "Ender Chest Box",
}

// DisplayName resolves a token to its formatted name.
func DisplayName(tok ItemToken) string {
	if name, ok := displayNames[tok]; ok {
		return name
	}
	return UnknownItem
}
