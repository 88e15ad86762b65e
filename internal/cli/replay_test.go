package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LdDl/grabbed-go/pipeline"
)

// writeLabels writes labels file where hand stays still and packet moves 4px right each frame
func writeLabels(t *testing.T, frames int) string {
	t.Helper()
	labels := pipeline.VideoLabels{Classes: []string{"background", "hand", "packet", "tampon", "pad"}}
	for i := 0; i < frames; i++ {
		labels.Frames = append(labels.Frames, pipeline.LabelFrame{
			Frame: i,
			Objects: []pipeline.LabelObject{
				{Class: 1, Confidence: 0.9, Box: pipeline.LabelBox{X: 20, Y: 20, Width: 120, Height: 120}},
				{Class: 2, Confidence: 0.8, Box: pipeline.LabelBox{X: 500 + float64(i)*4, Y: 300, Width: 90, Height: 90}},
			},
		})
	}
	data, err := json.Marshal(labels)
	if err != nil {
		t.Fatal(err)
	}
	fileName := filepath.Join(t.TempDir(), "labels.json")
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestNewReplayCmd(t *testing.T) {
	cmd := NewReplayCmd()

	if cmd == nil {
		t.Fatal("NewReplayCmd() returned nil")
	}
	if cmd.Use != "replay" {
		t.Errorf("Expected Use='replay', got %q", cmd.Use)
	}

	for _, name := range []string{"labels", "history", "exclude", "frame-start", "classes", "min-size", "frame-skip", "tracker", "matching", "track-thresh", "low-thresh", "min-iou", "lost-delay", "min-consecutive", "fps", "csv", "json", "sqlite", "session", "trajectories"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Flag '%s' not registered", name)
		}
	}

	if value := cmd.Flags().Lookup("history").DefValue; value != "100" {
		t.Errorf("Expected default history of 100, got %s", value)
	}
	if value := cmd.Flags().Lookup("exclude").DefValue; value != "hand" {
		t.Errorf("Expected default excluded class 'hand', got %s", value)
	}
}

func TestReplayRequiresLabels(t *testing.T) {
	cmd := NewReplayCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error without --labels")
	}
}

func TestReplayUnknownTracker(t *testing.T) {
	cmd := NewReplayCmd()
	cmd.SetArgs([]string{"--labels", writeLabels(t, 3), "--tracker", "sort"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown tracker") {
		t.Errorf("Expected unknown tracker error, got %v", err)
	}
}

func TestReplayCommand(t *testing.T) {
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "grabbed.csv")
	dbFile := filepath.Join(dir, "events.db")
	trajectoriesFile := filepath.Join(dir, "trajectories.csv")

	tests := []struct {
		name    string
		tracker string
	}{
		{"bytetrack", "bytetrack"},
		{"iou", "iou"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cmd := NewReplayCmd()
			cmd.SetArgs([]string{
				"--labels", writeLabels(t, 40),
				"--tracker", tt.tracker,
				"--csv", csvFile,
				"--sqlite", dbFile,
				"--session", tt.name,
				"--trajectories", trajectoriesFile,
			})
			cmd.SetOut(out)
			cmd.SetErr(&bytes.Buffer{})
			if err := cmd.Execute(); err != nil {
				t.Fatal(err)
			}

			output := out.String()
			if !strings.Contains(output, "Frames processed:       40") {
				t.Errorf("Expected 40 processed frames in output:\n%s", output)
			}
			if !strings.Contains(output, "Grabbed: packet #") {
				t.Errorf("Expected packet to be grabbed:\n%s", output)
			}
			if strings.Contains(output, "Grabbed: hand") {
				t.Errorf("Hand must never be grabbed:\n%s", output)
			}
			if !strings.Contains(output, "Frames as grabbed item:") {
				t.Errorf("Expected SQLite summary in output:\n%s", output)
			}

			data, err := os.ReadFile(csvFile)
			if err != nil {
				t.Fatal(err)
			}
			// Header and a row per frame
			if rows := strings.Count(string(data), "\n"); rows != 41 {
				t.Errorf("Expected 41 CSV lines, got %d", rows)
			}

			data, err = os.ReadFile(trajectoriesFile)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.HasPrefix(string(data), "id;class_name;length;track") {
				t.Errorf("Unexpected trajectories header: %s", string(data))
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	Version = "1.2.3"
	defer func() { Version = "dev" }()

	out := &bytes.Buffer{}
	cmd := NewVersionCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Version:  1.2.3") {
		t.Errorf("Expected version in output, got %q", out.String())
	}
}
