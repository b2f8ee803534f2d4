package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kalambet/careerpath/internal/advisor"
	"github.com/kalambet/careerpath/internal/roadmap"
	"github.com/kalambet/careerpath/internal/shell"
	"github.com/kalambet/careerpath/internal/storage"
	"github.com/kalambet/careerpath/internal/tracker"
)

// showView fetches what view v needs from the server and renders it.
func showView(ctx context.Context, w io.Writer, c *apiClient, v shell.View) error {
	switch v {
	case shell.ViewRoadmap:
		var plan roadmap.Plan
		resp, err := c.get(ctx, "/roadmap")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &plan); err != nil {
			return err
		}
		renderPlan(w, plan)
	case shell.ViewProfile, shell.ViewSkills:
		snap, err := c.snapshot(ctx)
		if err != nil {
			return err
		}
		if v == shell.ViewProfile {
			renderProfile(w, snap.Profile)
		} else {
			renderSkills(w, snap)
		}
	case shell.ViewAdvisor:
		renderAdvisorIntro(w)
	default:
		var d roadmap.Dashboard
		resp, err := c.get(ctx, "/dashboard")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, &d); err != nil {
			return err
		}
		renderDashboard(w, d)
	}
	return nil
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", colorize(colorBold, title))
}

func renderDashboard(w io.Writer, d roadmap.Dashboard) {
	heading(w, d.Headline)
	fmt.Fprintf(w, "  Profile completion  %s %d%%\n", progressBar(d.ProfileCompletion), d.ProfileCompletion)
	fmt.Fprintf(w, "  Average mastery     %s %d%%\n", progressBar(d.AverageMastery), d.AverageMastery)
	fmt.Fprintf(w, "  Skills tracked      %d\n", d.SkillCount)
	if len(d.Interests) > 0 {
		fmt.Fprintf(w, "  Career goals        %s\n", strings.Join(d.Interests, ", "))
	} else if d.GoalsHint != "" {
		fmt.Fprintf(w, "  Career goals        %s\n", colorize(colorDim, d.GoalsHint))
	}
	fmt.Fprintf(w, "\n  %s %s\n", colorize(colorCyan, "Next step:"), d.NextStep)

	for _, s := range d.Sections {
		heading(w, s.Title)
		if s.Locked {
			fmt.Fprintf(w, "  %s\n", colorize(colorDim, "🔒 "+s.Placeholder))
			continue
		}
		for _, o := range s.Items {
			fmt.Fprintf(w, "  • %s, %s  %s\n", o.Title, o.Organization, colorize(colorDim, o.Link))
		}
	}
}

func renderPlan(w io.Writer, plan roadmap.Plan) {
	if plan.NeedsInterests {
		heading(w, "Career Roadmap")
		fmt.Fprintf(w, "  %s\n", plan.Message)
		return
	}
	heading(w, plan.Title)
	for _, p := range plan.Phases {
		marker := " "
		switch {
		case p.Completed:
			marker = colorize(colorGreen, "✓")
		case p.Current:
			marker = colorize(colorCyan, "▶")
		}
		fmt.Fprintf(w, "\n%s Phase %d: %s (%s)  %s %d%%\n", marker, p.Number, p.Name, p.Duration, progressBar(p.Progress), p.Progress)
		for _, s := range p.Steps {
			box := "[ ]"
			if s.Done {
				box = colorize(colorGreen, "[x]")
			}
			fmt.Fprintf(w, "    %s %s\n", box, s.Name)
		}
	}
}

func renderProfile(w io.Writer, p *storage.Profile) {
	heading(w, "Profile")
	if p == nil {
		fmt.Fprintln(w, "  No profile yet. Use `careerpath profile set <key> <value>` to start one.")
		return
	}
	age := "-"
	if p.Age != nil {
		age = fmt.Sprint(*p.Age)
	}
	rows := [][2]string{
		{"Full name", orDash(p.FullName)},
		{"Age", age},
		{"Education", orDash(p.Education)},
		{"Timeline", orDash(p.Timeline)},
		{"Current skills", orDash(strings.Join(p.CurrentSkills, ", "))},
		{"Career interests", orDash(strings.Join(p.CareerInterests, ", "))},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-17s %s\n", r[0]+":", r[1])
	}
	fmt.Fprintf(w, "  %-17s %s %d%%\n", "Completion:", progressBar(p.ProfileCompletion), p.ProfileCompletion)
}

func renderSkills(w io.Writer, snap tracker.Snapshot) {
	heading(w, "Skills Tracker")
	if len(snap.Skills) == 0 {
		fmt.Fprintln(w, "  No skills tracked. Add current skills to your profile first.")
	}
	for _, s := range snap.Skills {
		fmt.Fprintf(w, "  %-28s %s %3d%%\n", s.SkillName, progressBar(s.MasteryLevel), s.MasteryLevel)
	}

	if len(snap.ProgressLogs) == 0 {
		return
	}
	heading(w, "Recent progress")
	for _, l := range snap.ProgressLogs {
		line := fmt.Sprintf("  %s  %-20s %3d%%", l.CreatedAt.Local().Format("2006-01-02 15:04"), l.SkillName, l.ProgressAmount)
		if l.Notes != nil {
			line += "  " + colorize(colorDim, *l.Notes)
		}
		fmt.Fprintln(w, line)
	}
}

func renderAdvisorIntro(w io.Writer) {
	heading(w, "AI Career Advisor")
	fmt.Fprintf(w, "  %s\n\n", advisor.Greeting)
	fmt.Fprintln(w, "  Try asking:")
	for _, s := range advisor.Suggestions {
		fmt.Fprintf(w, "    • %s\n", s)
	}
	fmt.Fprintln(w, "\n  Start a conversation with `careerpath chat`.")
}

func renderMenu(w io.Writer, current shell.View) {
	heading(w, "Menu")
	for _, e := range shell.Menu() {
		marker := "  "
		if e.View == current {
			marker = colorize(colorCyan, "▶ ")
		}
		fmt.Fprintf(w, "  %s%-16s %s\n", marker, e.Label, colorize(colorDim, "/view "+string(e.View)))
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
