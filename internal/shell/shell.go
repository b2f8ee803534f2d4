// Package shell holds view selection and sidebar state for front-ends.
package shell

import (
	"strings"
	"sync"
)

type View string

const (
	ViewDashboard View = "dashboard"
	ViewProfile   View = "profile"
	ViewSkills    View = "skills"
	ViewRoadmap   View = "roadmap"
	ViewAdvisor   View = "advisor"
)

// MenuEntry is one navigation item.
type MenuEntry struct {
	View        View   `json:"view"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var menu = []MenuEntry{
	{ViewDashboard, "Dashboard", "Overview of your progress"},
	{ViewProfile, "Profile", "Personal info and career interests"},
	{ViewSkills, "Skills Tracker", "Log progress and update mastery"},
	{ViewRoadmap, "Career Roadmap", "Your personalized learning path"},
	{ViewAdvisor, "AI Advisor", "Ask for career guidance"},
}

// Menu returns the navigation entries in display order.
func Menu() []MenuEntry {
	return append([]MenuEntry(nil), menu...)
}

// ParseView maps a name or label to a View. Unknown input yields the dashboard.
func ParseView(s string) View {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range menu {
		if s == string(e.View) || s == strings.ToLower(e.Label) {
			return e.View
		}
	}
	switch s {
	case "chat":
		return ViewAdvisor
	case "progress":
		return ViewSkills
	}
	return ViewDashboard
}

// Navigator tracks the current view and whether the sidebar is open.
type Navigator struct {
	mu          sync.Mutex
	current     View
	sidebarOpen bool
}

// NewNavigator starts on the dashboard with the sidebar closed.
func NewNavigator() *Navigator {
	return &Navigator{current: ViewDashboard}
}

func (n *Navigator) Current() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SetView switches views and closes the sidebar, as selecting a menu item does.
func (n *Navigator) SetView(v View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = v
	n.sidebarOpen = false
}

func (n *Navigator) SidebarOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sidebarOpen
}

func (n *Navigator) SetSidebarOpen(open bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sidebarOpen = open
}

// ToggleSidebar flips the sidebar and returns the new state.
func (n *Navigator) ToggleSidebar() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sidebarOpen = !n.sidebarOpen
	return n.sidebarOpen
}
