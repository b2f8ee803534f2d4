package tracker

import (
	"math"
	"slices"
	"strings"

	"github.com/kalambet/careerpath/internal/storage"
)

// Allowed values for the enumerated profile fields. The empty string unsets.
var (
	EducationLevels = []string{"high-school", "associate", "bachelor", "master", "phd"}
	Timelines       = []string{"6-months", "1-year", "2-years", "3-years"}
)

// completionFields is the number of profile fields counted by Completion.
const completionFields = 6

// ProfilePatch is a partial profile update. Nil fields are left unchanged.
// An Age of 0 clears the age; an empty list clears that list.
type ProfilePatch struct {
	FullName        *string  `json:"full_name,omitempty"`
	Age             *int     `json:"age,omitempty"`
	Education       *string  `json:"education,omitempty"`
	Timeline        *string  `json:"timeline,omitempty"`
	CurrentSkills   []string `json:"current_skills"`
	CareerInterests []string `json:"career_interests"`
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.Age == nil && p.Education == nil && p.Timeline == nil &&
		p.CurrentSkills == nil && p.CareerInterests == nil
}

func (p ProfilePatch) validate() error {
	if p.Age != nil && *p.Age < 0 {
		return &ValidationError{Field: "age", Reason: "must not be negative"}
	}
	if p.Education != nil && *p.Education != "" && !slices.Contains(EducationLevels, *p.Education) {
		return &ValidationError{Field: "education", Reason: "must be one of " + strings.Join(EducationLevels, ", ")}
	}
	if p.Timeline != nil && *p.Timeline != "" && !slices.Contains(Timelines, *p.Timeline) {
		return &ValidationError{Field: "timeline", Reason: "must be one of " + strings.Join(Timelines, ", ")}
	}
	return nil
}

// apply merges p onto base and recomputes the completion score.
func (p ProfilePatch) apply(base storage.Profile) storage.Profile {
	out := base
	if p.FullName != nil {
		out.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Age != nil {
		if *p.Age == 0 {
			out.Age = nil
		} else {
			age := *p.Age
			out.Age = &age
		}
	}
	if p.Education != nil {
		out.Education = *p.Education
	}
	if p.Timeline != nil {
		out.Timeline = *p.Timeline
	}
	if p.CurrentSkills != nil {
		out.CurrentSkills = NormalizeList(p.CurrentSkills)
	}
	if p.CareerInterests != nil {
		out.CareerInterests = NormalizeList(p.CareerInterests)
	}
	out.ProfileCompletion = Completion(out)
	return out
}

// Completion is round(100 * filled / 6) over name, age, education, timeline,
// current skills and career interests.
func Completion(p storage.Profile) int {
	filled := 0
	for _, ok := range []bool{
		strings.TrimSpace(p.FullName) != "",
		p.Age != nil,
		p.Education != "",
		p.Timeline != "",
		len(p.CurrentSkills) > 0,
		len(p.CareerInterests) > 0,
	} {
		if ok {
			filled++
		}
	}
	return int(math.Round(100 * float64(filled) / completionFields))
}

// NormalizeList trims entries, drops blanks and removes duplicates, keeping
// the first occurrence. Matching is case-sensitive.
func NormalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, dup := seen[it]; dup {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Clamp bounds a mastery value to [0, 100].
func Clamp(v int) int {
	return max(0, min(100, v))
}
