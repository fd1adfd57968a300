package domain

import "math"

// Fixed thresholds that actually gate the user's level. The display
// progress below computes a different, pool-relative pair of numbers;
// the two are intentionally separate (see DESIGN.md).
const (
	virtuosoModuleCount = 2
	maestroModuleCount  = 5
)

// LevelForCompletedModules derives the authoritative level purely from
// the completed-module count. Total points never participate.
func LevelForCompletedModules(completed int) Level {
	switch {
	case completed >= maestroModuleCount:
		return LevelMaestro
	case completed >= virtuosoModuleCount:
		return LevelVirtuoso
	default:
		return LevelAprendiz
	}
}

// ModulePoints returns the completion award keyed by the module's own
// level. Quiz submissions award nothing; all points flow from module
// completion. An unknown level awards nothing.
func ModulePoints(moduleLevel Level) int {
	switch moduleLevel {
	case LevelAprendiz:
		return 50
	case LevelVirtuoso:
		return 100
	case LevelMaestro:
		return 150
	default:
		return 0
	}
}

// ComputeDisplayProgress derives the advisory progress-bar thresholds
// from the live count of active modules per level: 75% of the aprendiz
// pool to show virtuoso, 75% of the combined aprendiz+virtuoso pool to
// show maestro. Display metadata only; LevelForCompletedModules is the
// single source of truth for the stored level.
func ComputeDisplayProgress(activeByLevel map[Level]int, completedModules int) DisplayProgress {
	aprendizPool := activeByLevel[LevelAprendiz]
	virtuosoPool := activeByLevel[LevelVirtuoso]
	return DisplayProgress{
		VirtuosoThreshold: int(math.Ceil(float64(aprendizPool) * 0.75)),
		MaestroThreshold:  int(math.Ceil(float64(aprendizPool+virtuosoPool) * 0.75)),
		CompletedModules:  completedModules,
	}
}
