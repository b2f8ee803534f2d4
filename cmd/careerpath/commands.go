package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/careerpath/internal/config"
	"github.com/kalambet/careerpath/internal/resume"
	"github.com/kalambet/careerpath/internal/shell"
	"github.com/kalambet/careerpath/internal/storage"
	"github.com/kalambet/careerpath/internal/tracker"
)

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your career profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile storage.Profile
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field",
	Long: `Set a profile field.

Keys: full_name, age, education, timeline, current_skills, career_interests.
List fields take a comma-separated value and replace the whole list.

Examples:
  careerpath profile set full_name "Ada Lovelace"
  careerpath profile set education bachelor
  careerpath profile set career_interests "Machine Learning, Data Science"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		body, err := profileField(key, value)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/profile", body)
		if err != nil {
			return err
		}

		var snap tracker.Snapshot
		if err := decodeJSON(resp, &snap); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		if snap.Profile != nil {
			printStatus("Completion", "%d%%", snap.Profile.ProfileCompletion)
		}
		return nil
	},
}

// profileField turns a CLI key/value pair into a PATCH /profile body.
func profileField(key, value string) (map[string]any, error) {
	switch key {
	case "full_name":
		return map[string]any{key: value}, nil
	case "education", "timeline":
		return map[string]any{key: strings.TrimSpace(value)}, nil
	case "age":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid age %q: %w", value, err)
		}
		return map[string]any{key: n}, nil
	case "current_skills", "career_interests":
		return map[string]any{key: splitList(value)}, nil
	default:
		return nil, fmt.Errorf("unknown profile field %q (want full_name, age, education, timeline, current_skills or career_interests)", key)
	}
}

func splitList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open profile JSON in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		snap, err := client.snapshot(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(editableProfile(snap.Profile), "", "  ")
		if err != nil {
			return err
		}

		tmpFile, err := os.CreateTemp("", "careerpath-profile-*.json")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		tmpPath := tmpFile.Name()
		defer os.Remove(tmpPath)

		if _, err := tmpFile.Write(data); err != nil {
			tmpFile.Close()
			return err
		}
		tmpFile.Close()

		editorCmd := exec.Command(editor, tmpPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr
		if err := editorCmd.Run(); err != nil {
			return fmt.Errorf("editor exited with error: %w", err)
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := json.Unmarshal(edited, &fields); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}

		resp, err := client.patch(cmd.Context(), "/profile", fields)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Profile updated")
		return nil
	},
}

// editableProfile is the subset of a profile a user may edit by hand.
func editableProfile(p *storage.Profile) map[string]any {
	fields := map[string]any{
		"full_name":        "",
		"age":              0,
		"education":        "",
		"timeline":         "",
		"current_skills":   []string{},
		"career_interests": []string{},
	}
	if p == nil {
		return fields
	}
	fields["full_name"] = p.FullName
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	fields["education"] = p.Education
	fields["timeline"] = p.Timeline
	fields["current_skills"] = p.CurrentSkills
	fields["career_interests"] = p.CareerInterests
	return fields
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileEditCmd)
}

// --- skills ---

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Track skill mastery",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked skills with mastery levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return showView(cmd.Context(), cmd.OutOrStdout(), client, shell.ViewSkills)
	},
}

var skillsSetCmd = &cobra.Command{
	Use:   "set <name> <level>",
	Short: "Set the mastery level (0-100) of a tracked skill",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		level, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[1], err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/skills/"+url.PathEscape(name), map[string]int{"mastery_level": level})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Set %s = %d%%", name, tracker.Clamp(level))
		return nil
	},
}

var skillsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Extract skills from a résumé (PDF or text)",
	Long: `Extract skills from the "Skills" section of a résumé.

Without --apply the extracted skills are only printed. With --apply they are
merged into the profile's current skills, which adds them to the tracker.

Examples:
  careerpath skills import --file ./resume.pdf
  careerpath skills import --file ./resume.txt --apply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		apply, _ := cmd.Flags().GetBool("apply")
		if file == "" {
			return fmt.Errorf("--file is required")
		}

		found, err := resume.ExtractFile(file)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			printWarning("No skills section found in %s", file)
			return nil
		}

		out := cmd.OutOrStdout()
		for _, s := range found {
			fmt.Fprintf(out, "  • %s\n", s)
		}
		if !apply {
			printStep("Run again with --apply to add these to your profile")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := client.snapshot(cmd.Context())
		if err != nil {
			return err
		}

		var current []string
		if snap.Profile != nil {
			current = snap.Profile.CurrentSkills
		}
		merged, added := mergeSkills(current, found)
		if added == 0 {
			printSuccess("All %d skills are already tracked", len(found))
			return nil
		}

		resp, err := client.patch(cmd.Context(), "/profile", map[string]any{"current_skills": merged})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Added %d skills", added)
		return nil
	},
}

// mergeSkills appends the names in found that current lacks, compared
// case-insensitively, and reports how many were added.
func mergeSkills(current, found []string) ([]string, int) {
	seen := make(map[string]bool, len(current))
	merged := append([]string{}, current...)
	for _, s := range current {
		seen[strings.ToLower(s)] = true
	}
	added := 0
	for _, s := range found {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, s)
		added++
	}
	return merged, added
}

func init() {
	skillsImportCmd.Flags().String("file", "", "résumé file (.pdf or plain text)")
	skillsImportCmd.Flags().Bool("apply", false, "merge extracted skills into the profile")
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsSetCmd)
	skillsCmd.AddCommand(skillsImportCmd)
}

// --- progress ---

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Log and review learning progress",
}

var progressLogCmd = &cobra.Command{
	Use:   "log <skill> <amount>",
	Short: "Record progress; the skill's mastery becomes the amount",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		notes, _ := cmd.Flags().GetString("notes")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/progress", map[string]any{
			"skill_name":      args[0],
			"progress_amount": amount,
			"notes":           notes,
		})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}

		printSuccess("Logged %s at %d%%", args[0], tracker.Clamp(amount))
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent progress logs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/progress?limit=%d", limit))
		if err != nil {
			return err
		}
		var logs []storage.ProgressLog
		if err := decodeJSON(resp, &logs); err != nil {
			return err
		}

		if len(logs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No progress logged yet.")
			return nil
		}
		for _, l := range logs {
			notes := ""
			if l.Notes != nil {
				notes = *l.Notes
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %3d%%  %s\n",
				colorize(colorCyan, l.CreatedAt.Local().Format("2006-01-02 15:04")),
				l.SkillName,
				l.ProgressAmount,
				notes,
			)
		}
		return nil
	},
}

func init() {
	progressLogCmd.Flags().String("notes", "", "what you worked on")
	progressListCmd.Flags().Int("limit", 20, "maximum number of logs to list")
	progressCmd.AddCommand(progressLogCmd)
	progressCmd.AddCommand(progressListCmd)
}

// --- views ---

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Show your learning roadmap",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, shell.ViewRoadmap)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the progress dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runView(cmd, shell.ViewDashboard)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <view>",
	Short: "Show a view by name (dashboard, profile, skills, roadmap, advisor)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runView(cmd, shell.ParseView(name))
	},
}

func runView(cmd *cobra.Command, v shell.View) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	return showView(cmd.Context(), cmd.OutOrStdout(), client, v)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorDim, "($"+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.ValidKeys(), ", "))
		}

		printSuccess("Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
