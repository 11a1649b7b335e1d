package game

// XPPerLevel scales the experience needed to leave a level.
const XPPerLevel = 150

// Progression is the long-lived player record that survives sessions.
type Progression struct {
	Level     int `json:"level"`
	CurrentXP int `json:"currentXp"`
}

// NewProgression returns the starting record.
func NewProgression() Progression {
	return Progression{Level: 1, CurrentXP: 0}
}

// XPToNextLevel is the threshold currentXp must reach to level up.
func (p Progression) XPToNextLevel() int {
	return p.Level * XPPerLevel
}
