package advisor

import (
	"fmt"
	"strings"

	"github.com/kalambet/careerpath/internal/roadmap"
)

// Context is the read-only profile snapshot a reply may draw on.
type Context struct {
	Skills    []roadmap.Skill
	Interests []string
}

// Rule is one keyword group. Rules are evaluated in order and the first whose
// keywords appear in the lower-cased message answers.
type Rule struct {
	Name     string
	Keywords []string
	Respond  func(Context) string
}

// Matches reports whether the lower-cased message contains any keyword.
func (r Rule) Matches(lowered string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func fixed(s string) func(Context) string {
	return func(Context) string { return s }
}

// DefaultRules is the built-in rule table.
var DefaultRules = []Rule{
	{
		Name:     "roadmap",
		Keywords: []string{"roadmap", "path"},
		Respond: func(c Context) string {
			if len(c.Interests) == 0 {
				return "I'd love to help you create a roadmap! First, please complete your profile and specify your career interests. This will help me generate a personalized learning path just for you."
			}
			lowered := make([]string, len(c.Interests))
			for i, in := range c.Interests {
				lowered[i] = strings.ToLower(in)
			}
			return fmt.Sprintf("Based on your interests in %s, I recommend focusing on the current phase in your roadmap. Would you like me to break down the next steps into a weekly schedule?", strings.Join(lowered, ", "))
		},
	},
	{
		Name:     "skills",
		Keywords: []string{"skill", "learn"},
		Respond: func(c Context) string {
			if len(c.Skills) == 0 {
				return "Start by adding your current skills to your profile! This helps me understand your background and suggest the most relevant next steps for your career goals."
			}
			return fmt.Sprintf("I notice your %s skill could use some improvement. Focus on daily practice - even 30-60 minutes can make a big difference. What specific aspect would you like to work on?", weakest(c.Skills).Name)
		},
	},
	{
		Name:     "career",
		Keywords: []string{"job", "interview", "career"},
		Respond: func(c Context) string {
			if meanMastery(c.Skills) < roadmap.UnlockAverage {
				return "You're making great progress! To unlock more job opportunities, aim to get your average skill mastery above 70%. Focus on your foundational skills first, then build projects to demonstrate your abilities."
			}
			return "Great! Your skills are at a good level for job applications. Make sure to build a strong portfolio with 2-3 solid projects. Practice explaining your projects clearly - this is key for interviews."
		},
	},
	{
		Name:     "portfolio",
		Keywords: []string{"portfolio", "project"},
		Respond:  fixed("A strong portfolio should showcase 2-3 projects that demonstrate different skills. Include: 1) A description of the problem solved, 2) Technologies used, 3) Challenges overcome, and 4) Live demo links. Quality over quantity!"),
	},
	{
		Name:     "motivation",
		Keywords: []string{"motivation", "stuck", "difficult"},
		Respond:  fixed("Learning can be challenging, but you're not alone! Try breaking big goals into smaller, daily tasks. Celebrate small wins, and remember that consistency beats intensity. What specific challenge are you facing right now?"),
	},
	{
		Name:     "salary",
		Keywords: []string{"salary", "pay", "money"},
		Respond:  fixed("Salary depends on location, experience, and skills. Focus first on building solid fundamentals and a portfolio. Entry-level positions in tech typically offer good growth potential. Your skills and projects matter more than years of experience."),
	},
	{
		Name:     "remote",
		Keywords: []string{"remote", "work from home"},
		Respond:  fixed("Remote opportunities are abundant in tech! Build a strong online presence through GitHub, LinkedIn, and a personal website. Many companies now offer remote-first positions, especially for developers and data professionals."),
	},
}

// DefaultResponses are drawn from when no rule matches.
var DefaultResponses = []string{
	"That's a great question! Can you provide more details about your specific situation?",
	"I'm here to help with your career journey. What aspect would you like to focus on - skills, roadmap, or job preparation?",
	"Based on your profile, I can give you more personalized advice. What's your biggest challenge right now?",
	"Let's work together to advance your career. What would you like to achieve in the next 3 months?",
}

// Greeting opens every conversation.
const Greeting = "Hello! I'm your AI Career Advisor. I can help you with career guidance, skill recommendations, learning paths, and interview preparation. What would you like to discuss today?"

// Suggestions are canned prompts offered next to the input.
var Suggestions = []string{
	"What should I learn next?",
	"Help me with interview prep",
	"Review my career roadmap",
	"How to build a portfolio?",
}

// weakest returns the first skill with the lowest mastery. skills must be non-empty.
func weakest(skills []roadmap.Skill) roadmap.Skill {
	lowest := skills[0]
	for _, s := range skills[1:] {
		if s.Mastery < lowest.Mastery {
			lowest = s
		}
	}
	return lowest
}

// meanMastery is the unrounded mean, 0 for no skills.
func meanMastery(skills []roadmap.Skill) float64 {
	if len(skills) == 0 {
		return 0
	}
	sum := 0
	for _, s := range skills {
		sum += s.Mastery
	}
	return float64(sum) / float64(len(skills))
}
