package state

const (
	// MaxStat is the upper bound of every run-state stat, progress included.
	MaxStat = 100

	InitialHealth    = 100
	InitialDetection = 0
	InitialResources = 50
)

// RunState is the per-actor survival and progress record for one game.
type RunState struct {
	Progress  int  `json:"progress"`
	Errors    int  `json:"errors"`
	Completed bool `json:"completed"`
	Health    int  `json:"health"`
	Detection int  `json:"detection"`
	Resources int  `json:"resources"`
}

// Vitals is a signed change to health, detection and resources.
type Vitals struct {
	Health    int `json:"health,omitempty"`
	Detection int `json:"detection,omitempty"`
	Resources int `json:"resources,omitempty"`
}

func NewRunState() *RunState {
	return &RunState{
		Health:    InitialHealth,
		Detection: InitialDetection,
		Resources: InitialResources,
	}
}

// AddProgress adds a non-negative gain and latches Completed at MaxStat.
// Nothing reduces progress, so a negative gain is ignored. Returns the
// amount actually added.
func (r *RunState) AddProgress(gain int) int {
	if gain <= 0 || r.Completed {
		return 0
	}
	before := r.Progress
	r.Progress = Clamp(r.Progress+gain, 0, MaxStat)
	if r.Progress >= MaxStat {
		r.Completed = true
	}
	return r.Progress - before
}

// RecordError counts one failed action.
func (r *RunState) RecordError() {
	r.Errors++
}

// Adjust applies v, keeping each stat within [0, MaxStat].
func (r *RunState) Adjust(v Vitals) {
	r.Health = Clamp(r.Health+v.Health, 0, MaxStat)
	r.Detection = Clamp(r.Detection+v.Detection, 0, MaxStat)
	r.Resources = Clamp(r.Resources+v.Resources, 0, MaxStat)
}

// Clone returns an independent copy.
func (r *RunState) Clone() *RunState {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
