// Package scoring holds the safety-score, bonus and leveling rules.
package scoring

import "github.com/zhouzirui/prepzone/backend/internal/model/game"

const (
	// InitialSafetyScore is the score every session starts with.
	InitialSafetyScore = 100
	// IncorrectPenalty is subtracted from the safety score on a wrong answer.
	IncorrectPenalty = 25
	// FastResponseThreshold is the longest elapsed time, in seconds, that still earns a bonus.
	FastResponseThreshold = 10
	// FastResponseBonus is added to the session bonus for a fast correct answer.
	FastResponseBonus = 20
	// BaseXP is awarded for finishing a session with safety left.
	BaseXP = 100
)

// ApplyPenalty returns the score after a wrong answer, floored at zero.
func ApplyPenalty(score int) int {
	next := score - IncorrectPenalty
	if next < 0 {
		return 0
	}
	return next
}

// TimeBonus returns the bonus earned by one resolved turn. timerDuration is nil for
// untimed sessions.
func TimeBonus(correct bool, timerDuration *int, timeRemaining int) int {
	if !correct || timerDuration == nil {
		return 0
	}
	elapsed := *timerDuration - timeRemaining
	if elapsed <= FastResponseThreshold {
		return FastResponseBonus
	}
	return 0
}

// EarnedXP returns the session's XP grant. A depleted run earns nothing.
func EarnedXP(safetyScore, bonusXP int) (base, total int) {
	if safetyScore <= 0 {
		return 0, 0
	}
	return BaseXP, BaseXP + bonusXP
}

// LevelUp adds xp to p and rolls over as many levels as the total covers.
func LevelUp(p game.Progression, xp int) (game.Progression, bool) {
	if xp <= 0 {
		return p, false
	}

	p.CurrentXP += xp
	leveled := false
	for p.CurrentXP >= p.XPToNextLevel() {
		p.CurrentXP -= p.XPToNextLevel()
		p.Level++
		leveled = true
	}
	return p, leveled
}
