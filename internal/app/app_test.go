package app

import (
	"path/filepath"
	"testing"

	"fstx/internal/config"
	"fstx/internal/journal"
	"fstx/internal/testutil"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		BaseDir: base,
		LogDir:  filepath.Join(base, "log"),
		Journal: config.JournalConfig{Type: "memory"},
	}
	a, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApplyPlan(t *testing.T) {
	t.Run("commits the plan and journals success", func(t *testing.T) {
		a := newTestApp(t)
		root := t.TempDir()
		testutil.WriteFile(t, filepath.Join(root, "main.conf"), "old\n")

		planPath := filepath.Join(root, "plan.toml")
		testutil.WriteFile(t, planPath, `
[[dirs]]
path = "conf.d"

[[files]]
path = "conf.d/extra.conf"
content = "extra\n"

[[edits]]
path = "main.conf"
content = "new\n"
`)

		result, err := a.ApplyPlan(planPath)
		if err != nil {
			t.Fatalf("ApplyPlan() error = %v", err)
		}
		if result.Dirs != 1 || result.Files != 1 || result.Edits != 1 {
			t.Errorf("result = %+v, want 1 of each", result)
		}

		if got := testutil.ReadFile(t, filepath.Join(root, "conf.d", "extra.conf")); got != "extra\n" {
			t.Errorf("new file content = %q, want %q", got, "extra\n")
		}
		if got := testutil.ReadFile(t, filepath.Join(root, "main.conf")); got != "new\n" {
			t.Errorf("edited content = %q, want %q", got, "new\n")
		}

		entries, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("History() returned %d entries, want 1", len(entries))
		}
		if entries[0].Status != journal.StatusSuccess {
			t.Errorf("journal status = %s, want %s", entries[0].Status, journal.StatusSuccess)
		}
		if entries[0].ID != result.TxID {
			t.Errorf("journal ID = %s, want %s", entries[0].ID, result.TxID)
		}
	})

	t.Run("rolls back and journals a failed commit", func(t *testing.T) {
		a := newTestApp(t)
		root := t.TempDir()
		testutil.WriteFile(t, filepath.Join(root, "main.conf"), "old\n")

		// conf.d is never staged, so the new file cannot be committed.
		planPath := filepath.Join(root, "plan.toml")
		testutil.WriteFile(t, planPath, `
[[files]]
path = "conf.d/extra.conf"
content = "extra\n"

[[edits]]
path = "main.conf"
content = "new\n"
`)

		if _, err := a.ApplyPlan(planPath); err == nil {
			t.Fatal("ApplyPlan() succeeded, want commit failure")
		}

		if testutil.Exists(t, filepath.Join(root, "conf.d")) {
			t.Error("conf.d exists after rollback")
		}
		if got := testutil.ReadFile(t, filepath.Join(root, "main.conf")); got != "old\n" {
			t.Errorf("edited file content = %q, want original %q", got, "old\n")
		}

		entries, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("History() returned %d entries, want 1", len(entries))
		}
		if entries[0].Status != journal.StatusFailed {
			t.Errorf("journal status = %s, want %s", entries[0].Status, journal.StatusFailed)
		}
		if entries[0].Error == "" {
			t.Error("journal entry has no error text")
		}
	})

	t.Run("journals a staging failure", func(t *testing.T) {
		a := newTestApp(t)
		root := t.TempDir()

		// Edit target does not exist; staging fails before any commit.
		planPath := filepath.Join(root, "plan.toml")
		testutil.WriteFile(t, planPath, "[[edits]]\npath = \"missing.conf\"\ncontent = \"x\"\n")

		if _, err := a.ApplyPlan(planPath); err == nil {
			t.Fatal("ApplyPlan() succeeded, want staging failure")
		}

		entries, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Status != journal.StatusFailed {
			t.Fatalf("journal entries = %+v, want one failed entry", entries)
		}
	})

	t.Run("missing plan file", func(t *testing.T) {
		a := newTestApp(t)
		if _, err := a.ApplyPlan(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("ApplyPlan() succeeded with a missing plan file")
		}
		// Nothing reached the journal.
		entries, err := a.History(10)
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("History() returned %d entries, want 0", len(entries))
		}
	})
}

func TestGetDefaults(t *testing.T) {
	t.Setenv("FSTX_CONFIG_PATH", "/tmp/custom.toml")
	t.Setenv("FSTX_HOME", "/tmp/fstx-home")

	defaults, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults() error = %v", err)
	}
	if defaults["config_path"] != "/tmp/custom.toml" {
		t.Errorf("config_path = %s, want /tmp/custom.toml", defaults["config_path"])
	}
	if defaults["base_dir"] != "/tmp/fstx-home" {
		t.Errorf("base_dir = %s, want /tmp/fstx-home", defaults["base_dir"])
	}
	if defaults["log_dir"] != filepath.Join("/tmp/fstx-home", "log") {
		t.Errorf("log_dir = %s", defaults["log_dir"])
	}
}
