// Package resume pulls a skill list out of a résumé so it can pre-fill a
// profile's current skills.
package resume

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxSkillLen drops fragments that are sentences rather than skill names.
const maxSkillLen = 40

var (
	skillsHeading = regexp.MustCompile(`(?i)^\s*(?:technical\s+|core\s+|key\s+)?skills(?:\s*(?:&|and)\s*\w+)?\s*:?\s*(.*)$`)
	otherHeading  = regexp.MustCompile(`(?i)^\s*(experience|work experience|education|projects|certifications|awards|languages|interests|summary|objective|references|publications)\s*:?\s*$`)
	splitter      = regexp.MustCompile(`[,;|•·]+`)
)

// ExtractFile reads a PDF or plain-text résumé and returns its skills.
func ExtractFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ExtractPDF(bytes.NewReader(data), int64(len(data)))
	}
	return ExtractSkills(string(data)), nil
}

// ExtractPDF returns the skills listed in a PDF résumé.
func ExtractPDF(r io.ReaderAt, size int64) ([]string, error) {
	text, err := pdfText(r, size)
	if err != nil {
		return nil, err
	}
	return ExtractSkills(text), nil
}

func pdfText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(word.S)
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// ExtractSkills finds the "Skills" section of plain text and splits it into
// distinct skill names. Items may share the heading line ("Skills: Go, SQL")
// or follow it until a blank line or the next section heading.
func ExtractSkills(text string) []string {
	var items []string
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := skillsHeading.FindStringSubmatch(trimmed); m != nil {
			inSection = true
			items = append(items, split(m[1])...)
			continue
		}
		if !inSection {
			continue
		}
		if trimmed == "" || otherHeading.MatchString(trimmed) {
			inSection = false
			continue
		}
		items = append(items, split(trimmed)...)
	}
	return dedupe(items)
}

func split(s string) []string {
	var out []string
	for _, part := range splitter.Split(s, -1) {
		part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "-*–"))
		if part == "" || len(part) > maxSkillLen {
			continue
		}
		if i := strings.Index(part, ":"); i >= 0 {
			// "Languages: Go" style sub-headings.
			part = strings.TrimSpace(part[i+1:])
			if part == "" {
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

// dedupe removes case-insensitive duplicates, keeping the first spelling.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		k := strings.ToLower(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
