package roadmap

import (
	"fmt"
	"math"
	"strings"
)

// UnlockAverage and UnlockSingle are the unlock gate thresholds.
const (
	UnlockAverage = 70
	UnlockSingle  = 80
)

// Next-step advice, checked in this order.
const (
	NextStepCompleteProfile = "Complete your profile to unlock personalized recommendations"
	NextStepAddSkills       = "Add skills to start tracking your progress"
	NextStepWeb             = "Start with HTML/CSS fundamentals & build a portfolio website"
	NextStepData            = "Begin with Python + Pandas and complete a data analysis project"
	NextStepExplore         = "Explore different career paths and choose your focus area"
)

const (
	headlineUnlocked = "Congratulations! Here are tailored opportunities based on your progress."
	headlineLocked   = "Unlock internships, hackathons, and jobs by progressing your skills."
	goalsHint        = "Set your career goals to see recommendations"
)

// AverageMastery is the rounded mean mastery, 0 for no skills.
func AverageMastery(skills []Skill) int {
	if len(skills) == 0 {
		return 0
	}
	sum := 0
	for _, s := range skills {
		sum += s.Mastery
	}
	return int(math.Round(float64(sum) / float64(len(skills))))
}

// Unlocked reports whether curated opportunities are visible: the rounded
// mean mastery reaches UnlockAverage or any one skill reaches UnlockSingle.
func Unlocked(skills []Skill) bool {
	if len(skills) == 0 {
		return false
	}
	if AverageMastery(skills) >= UnlockAverage {
		return true
	}
	for _, s := range skills {
		if s.Mastery >= UnlockSingle {
			return true
		}
	}
	return false
}

// NextStep picks the dashboard advice line.
func NextStep(profileCompletion int, skills []Skill, interests []string) string {
	if profileCompletion < 100 {
		return NextStepCompleteProfile
	}
	if len(skills) == 0 {
		return NextStepAddSkills
	}
	lowered := lowerAll(interests)
	switch {
	case anyContains(lowered, "web", "frontend"):
		return NextStepWeb
	case anyContains(lowered, "data"):
		return NextStepData
	default:
		return NextStepExplore
	}
}

// Section is one opportunity category on the dashboard.
type Section struct {
	Title       string        `json:"title"`
	Locked      bool          `json:"locked"`
	Placeholder string        `json:"placeholder,omitempty"`
	Items       []Opportunity `json:"items,omitempty"`
}

// LockedPlaceholder is the text shown for a locked category.
func LockedPlaceholder(section string) string {
	return fmt.Sprintf("Reach %d%% average skill mastery to unlock curated %s.", UnlockAverage, strings.ToLower(section))
}

// Dashboard is the summary view of a user's progress.
type Dashboard struct {
	ProfileCompletion int       `json:"profile_completion"`
	AverageMastery    int       `json:"average_mastery"`
	SkillCount        int       `json:"skill_count"`
	Interests         []string  `json:"interests"`
	GoalsHint         string    `json:"goals_hint,omitempty"`
	NextStep          string    `json:"next_step"`
	Track             Track     `json:"track"`
	Unlocked          bool      `json:"unlocked"`
	Headline          string    `json:"headline"`
	Sections          []Section `json:"sections"`
}

// BuildDashboard assembles the dashboard from profile fields and skills.
func BuildDashboard(profileCompletion int, interests []string, skills []Skill) Dashboard {
	d := Dashboard{
		ProfileCompletion: profileCompletion,
		AverageMastery:    AverageMastery(skills),
		SkillCount:        len(skills),
		Interests:         append([]string{}, interests...),
		NextStep:          NextStep(profileCompletion, skills, interests),
		Track:             SelectTrack(interests),
		Unlocked:          Unlocked(skills),
	}
	if len(interests) == 0 {
		d.GoalsHint = goalsHint
	}

	titles := []string{"Internships", "Hackathons", "Jobs"}
	if !d.Unlocked {
		d.Headline = headlineLocked
		for _, t := range titles {
			d.Sections = append(d.Sections, Section{Title: t, Locked: true, Placeholder: LockedPlaceholder(t)})
		}
		return d
	}

	d.Headline = headlineUnlocked
	o := OpportunitiesFor(d.Track)
	for i, items := range [][]Opportunity{o.Internships, o.Hackathons, o.Jobs} {
		d.Sections = append(d.Sections, Section{Title: titles[i], Items: items})
	}
	return d
}
