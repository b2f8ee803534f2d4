package roadmap

import (
	"math"
	"strings"
)

const (
	// StepDoneThreshold is the step completion at which a step counts as done.
	StepDoneThreshold = 80
	// PhaseDoneThreshold is the phase progress at which the next phase opens.
	PhaseDoneThreshold = 80
)

// PlaceholderMessage is shown instead of a plan when no interests are set.
const PlaceholderMessage = "Add your career interests to generate a personalized roadmap that guides your learning journey."

// StepStatus is the derived state of one curriculum step.
type StepStatus struct {
	Name       string  `json:"name"`
	Completion float64 `json:"completion"`
	Done       bool    `json:"done"`
}

// PhaseStatus is the derived state of one phase.
type PhaseStatus struct {
	Number    int          `json:"number"`
	Name      string       `json:"name"`
	Duration  string       `json:"duration"`
	Progress  int          `json:"progress"`
	Current   bool         `json:"current"`
	Completed bool         `json:"completed"`
	Steps     []StepStatus `json:"steps"`
}

// Plan is a track curriculum annotated with the user's progress.
type Plan struct {
	NeedsInterests bool          `json:"needs_interests"`
	Message        string        `json:"message,omitempty"`
	Track          Track         `json:"track,omitempty"`
	Title          string        `json:"title,omitempty"`
	Phases         []PhaseStatus `json:"phases,omitempty"`
}

// StepCompletion is the mean mastery of the skills related to step, or 0 when
// none are. A skill is related when the step name contains it, or when it
// contains the step's first word.
func StepCompletion(step string, skills []Skill) float64 {
	lowerStep := strings.ToLower(step)
	firstWord := strings.SplitN(lowerStep, " ", 2)[0]

	var sum, n int
	for _, sk := range skills {
		name := strings.ToLower(sk.Name)
		if strings.Contains(lowerStep, name) || strings.Contains(name, firstWord) {
			sum += sk.Mastery
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// StepDone reports whether step has reached StepDoneThreshold.
func StepDone(step string, skills []Skill) bool {
	return StepCompletion(step, skills) >= StepDoneThreshold
}

// PhaseProgress is the rounded percentage of done steps.
func PhaseProgress(steps []string, skills []Skill) int {
	if len(steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range steps {
		if StepDone(s, skills) {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(steps))))
}

// Build returns the annotated plan for the user's interests and skills.
func Build(interests []string, skills []Skill) Plan {
	if len(interests) == 0 {
		return Plan{NeedsInterests: true, Message: PlaceholderMessage}
	}

	track := SelectTrack(interests)
	phases := Curriculum(track)
	plan := Plan{
		Track:  track,
		Title:  track.Title(),
		Phases: make([]PhaseStatus, 0, len(phases)),
	}

	prev := 0
	for i, ph := range phases {
		progress := PhaseProgress(ph.Steps, skills)
		ps := PhaseStatus{
			Number:    i + 1,
			Name:      ph.Name,
			Duration:  ph.Duration,
			Progress:  progress,
			Current:   i == 0 || prev >= PhaseDoneThreshold,
			Completed: progress >= PhaseDoneThreshold,
			Steps:     make([]StepStatus, 0, len(ph.Steps)),
		}
		for _, step := range ph.Steps {
			c := StepCompletion(step, skills)
			ps.Steps = append(ps.Steps, StepStatus{Name: step, Completion: c, Done: c >= StepDoneThreshold})
		}
		plan.Phases = append(plan.Phases, ps)
		prev = progress
	}
	return plan
}
