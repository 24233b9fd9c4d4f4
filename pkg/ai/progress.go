package ai

import (
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/state"
)

var difficultyBonus = map[Difficulty]int{
	Easy:   0,
	Medium: 2,
	Hard:   4,
}

// ProgressGain draws the progress earned by one AI action and whether it
// counts as an error.
func ProgressGain(success bool, d Difficulty, src dice.Source) (gain int, errInc int) {
	if success {
		return dice.Between(src, 15, 24) + difficultyBonus[d], 0
	}
	return dice.Between(src, 3, 10), 1
}

// UpdateProgress applies one action's result to run. Completed runs are
// left untouched and report zero deltas.
func UpdateProgress(run *state.RunState, success bool, d Difficulty, src dice.Source) (gain int, errInc int) {
	if run == nil || run.Completed {
		return 0, 0
	}
	gain, errInc = ProgressGain(success, d, src)
	gain = run.AddProgress(gain)
	if errInc > 0 {
		run.RecordError()
	}
	return gain, errInc
}
