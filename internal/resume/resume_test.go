package resume

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractSkills(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "inline",
			text: "Ada Lovelace\nSkills: Go, SQL; Docker\nExperience\nEngineer at X",
			want: []string{"Go", "SQL", "Docker"},
		},
		{
			name: "block with bullets",
			text: "Summary\nBuilds things.\n\nTECHNICAL SKILLS\n• Python • Pandas\n- Kubernetes\n\nEducation\nBSc",
			want: []string{"Python", "Pandas", "Kubernetes"},
		},
		{
			name: "sub headings and duplicates",
			text: "Skills\nLanguages: Go, Rust\nTools: git, Go, GIT\nProjects\n",
			want: []string{"Go", "Rust", "git"},
		},
		{
			name: "no section",
			text: "Experience\nLots of it",
			want: []string{},
		},
		{
			name: "drops sentences",
			text: "Skills: React, I am a very motivated person who loves building products for people\n",
			want: []string{"React"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSkills(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractFile_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("Core Skills: HTML/CSS, JavaScript\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(got) != 2 || got[0] != "HTML/CSS" || got[1] != "JavaScript" {
		t.Errorf("got %v", got)
	}
}

func TestExtractFile_Missing(t *testing.T) {
	if _, err := ExtractFile(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractFile_InvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractFile(path); err == nil {
		t.Error("expected error for invalid pdf")
	}
}
