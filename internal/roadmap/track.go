// Package roadmap derives learning plans, unlock state and dashboard advice
// from a user's career interests and skill mastery. Everything here is a pure
// function of its inputs.
package roadmap

import "strings"

// Track is a career path that selects the curriculum and opportunity tables.
type Track string

const (
	TrackWebDevelopment Track = "web-development"
	TrackDataScience    Track = "data-science"
	TrackAIML           Track = "ai-ml"
)

// Title is the human-readable track name.
func (t Track) Title() string {
	switch t {
	case TrackDataScience:
		return "Data Science"
	case TrackAIML:
		return "AI/Machine Learning"
	default:
		return "Web Development"
	}
}

// Skill is the read-only view of a tracked skill used by the engine.
type Skill struct {
	Name    string `json:"skill_name"`
	Mastery int    `json:"mastery_level"`
}

// trackKeywords is checked in order; the first track with a matching keyword wins.
var trackKeywords = []struct {
	track    Track
	keywords []string
}{
	{TrackAIML, []string{"ai", "ml", "machine learning"}},
	{TrackDataScience, []string{"data", "analytics", "science"}},
}

// SelectTrack classifies interests by case-insensitive substring match.
func SelectTrack(interests []string) Track {
	lowered := lowerAll(interests)
	for _, tk := range trackKeywords {
		if anyContains(lowered, tk.keywords...) {
			return tk.track
		}
	}
	return TrackWebDevelopment
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

func anyContains(items []string, subs ...string) bool {
	for _, it := range items {
		for _, sub := range subs {
			if strings.Contains(it, sub) {
				return true
			}
		}
	}
	return false
}
