package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/tphummel/crowpanel/internal/config"
	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
)

// isolateConfig points the config layer at a fresh home directory and
// returns the database path it will use.
func isolateConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfig, "")
	for _, v := range []string{"CROWPANEL_HTTP_TOKEN", "CROWPANEL_DATABASE_PATH", "CROWPANEL_PREFS_NAMESPACE"} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
	path := filepath.Join(home, "panel.db")
	t.Setenv("CROWPANEL_DATABASE_PATH", path)
	return path
}

// seedStore writes the built-in profiles and selects slot.
func seedStore(t *testing.T, selected int) {
	t.Helper()
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	database, store, err := openStore(cfg)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer database.Close()
	if err := store.SeedDefaults(); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSlot(2, models.MachineProfile{
		Name:       "Yeagbot",
		SSID:       "shop",
		Password:   "hunter22",
		RemoteHost: "yeagbot.local",
		RemotePort: 80,
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetSelectedIndex(selected); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "crowpanel dev (none)\n" {
		t.Errorf("output: got %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if body["version"] != "dev" || body["commit"] != "none" {
		t.Errorf("body: got %v", body)
	}
}

func TestSlotsList_Table(t *testing.T) {
	isolateConfig(t)
	seedStore(t, 1)

	out, err := execute(t, "slots", "list")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != models.MaxSlots+1 {
		t.Fatalf("lines: got %d, want %d\n%s", len(lines), models.MaxSlots+1, out)
	}
	if !strings.HasPrefix(lines[0], "SLOT") {
		t.Errorf("header: got %q", lines[0])
	}
	if !strings.Contains(lines[2], "Pen Plotter") || !strings.HasSuffix(lines[2], "*") {
		t.Errorf("selected row: got %q", lines[2])
	}
	if !strings.Contains(lines[3], "yeagbot.local:80") {
		t.Errorf("slot 2 row: got %q", lines[3])
	}
	if !strings.Contains(lines[4], "wired") {
		t.Errorf("slot 3 row: got %q", lines[4])
	}
}

func TestSlotsList_JSONOmitsPassword(t *testing.T) {
	isolateConfig(t)
	seedStore(t, 2)

	out, err := execute(t, "slots", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "hunter22") {
		t.Error("JSON output contains the password")
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if len(entries) != models.MaxSlots {
		t.Fatalf("entries: got %d", len(entries))
	}
	if entries[2]["selected"] != true || entries[2]["ssid"] != "shop" {
		t.Errorf("slot 2: got %v", entries[2])
	}
}

func TestSlotsShow(t *testing.T) {
	isolateConfig(t)
	seedStore(t, -1)

	for _, arg := range []string{"3", "Test Wired Machine"} {
		t.Run(arg, func(t *testing.T) {
			out, err := execute(t, "slots", "show", arg)
			if err != nil {
				t.Fatal(err)
			}
			var entry map[string]any
			if err := json.Unmarshal([]byte(out), &entry); err != nil {
				t.Fatalf("not JSON: %v\n%s", err, out)
			}
			if entry["slot"] != float64(3) || entry["connection_type"] != "wired" {
				t.Errorf("entry: got %v", entry)
			}
		})
	}
}

func TestSlotsShow_OutOfRange(t *testing.T) {
	isolateConfig(t)
	seedStore(t, -1)

	_, err := execute(t, "slots", "show", "7")
	if !errors.Is(err, profiles.ErrSlotOutOfRange) {
		t.Errorf("error: got %v, want ErrSlotOutOfRange", err)
	}
}

func TestResolveSlot_Suggests(t *testing.T) {
	slots := profiles.DefaultSlots()

	_, err := resolveSlot(slots, "pen plotter")
	if err == nil || !strings.Contains(err.Error(), `did you mean "Pen Plotter"`) {
		t.Errorf("case-only mismatch: got %v", err)
	}

	_, err = resolveSlot(slots, "Yeagbott")
	if err == nil || !strings.Contains(err.Error(), `"Yeagbot"`) {
		t.Errorf("typo: got %v", err)
	}

	_, err = resolveSlot(slots, "Laser Cutter 9000")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("unrelated name: got %v", err)
	}
}

func TestSuggestNames_Order(t *testing.T) {
	var slots profiles.Slots
	slots[0] = models.MachineProfile{Name: "Mill", Configured: true}
	slots[1] = models.MachineProfile{Name: "Mil", Configured: true}
	slots[2] = models.MachineProfile{Name: "Mille", Configured: false}

	got := suggestNames(slots, "Mil")
	want := []string{`"Mil"`, `"Mill"`}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExportSlots(t *testing.T) {
	slots := profiles.DefaultSlots()
	slots[1].SSID = "shop"
	slots[1].Password = "hunter22"

	tests := []struct {
		name        string
		withSecrets bool
		want        string
	}{
		{"redacted", false, ""},
		{"with secrets", true, "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := exportSlots(&buf, slots, 1, tt.withSecrets); err != nil {
				t.Fatal(err)
			}

			var doc struct {
				Selected int `toml:"selected"`
				Slot     []struct {
					Slot           int    `toml:"slot"`
					Name           string `toml:"name"`
					ConnectionType string `toml:"connection_type"`
					SSID           string `toml:"ssid"`
					Password       string `toml:"password"`
				} `toml:"slot"`
			}
			if _, err := toml.Decode(buf.String(), &doc); err != nil {
				t.Fatalf("decode: %v\n%s", err, buf.String())
			}
			if doc.Selected != 1 || len(doc.Slot) != models.MaxSlots {
				t.Fatalf("doc: got selected %d with %d slots", doc.Selected, len(doc.Slot))
			}
			if doc.Slot[1].Password != tt.want {
				t.Errorf("password: got %q, want %q", doc.Slot[1].Password, tt.want)
			}
			if doc.Slot[3].ConnectionType != "wired" || doc.Slot[0].Name != "V1E LowRider 3" {
				t.Errorf("slots: got %+v", doc.Slot)
			}
		})
	}
}

func TestSlotsReset(t *testing.T) {
	isolateConfig(t)
	seedStore(t, 1)

	if _, err := execute(t, "slots", "reset"); err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("reset without --yes: got %v", err)
	}
	out, err := execute(t, "slots", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Pen Plotter") {
		t.Fatal("unconfirmed reset erased profiles")
	}

	out, err = execute(t, "slots", "reset", "--yes")
	if err != nil {
		t.Fatal(err)
	}
	if out != "cleared namespace \"crowpanel\"\n" {
		t.Errorf("output: got %q", out)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	database, store, err := openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	configured, err := store.HasAnyConfigured()
	if err != nil || configured {
		t.Errorf("after reset: configured=%v err=%v", configured, err)
	}
	selected, err := store.SelectedIndex()
	if err != nil || selected != profiles.NoSelection {
		t.Errorf("after reset: selected=%d err=%v", selected, err)
	}
}

func TestServe_RequiresToken(t *testing.T) {
	isolateConfig(t)
	_, err := execute(t, "serve")
	if err == nil || !strings.Contains(err.Error(), "http.token") {
		t.Errorf("error: got %v", err)
	}
}

func TestStdoutHost_Report(t *testing.T) {
	var h stdoutHost
	var buf bytes.Buffer
	if err := h.report(&buf); err != nil || buf.Len() != 0 {
		t.Fatalf("no activation: got %q, %v", buf.String(), err)
	}

	h.Activate(2, models.MachineProfile{
		Name:       "Yeagbot",
		SSID:       "shop",
		Password:   "hunter22",
		RemoteHost: "yeagbot.local",
		RemotePort: 81,
		Configured: true,
	})
	if err := h.report(&buf); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, buf.String())
	}
	want := map[string]any{
		"slot":            float64(2),
		"name":            "Yeagbot",
		"connection_type": "wireless",
		"ssid":            "shop",
		"password":        "hunter22",
		"remote_host":     "yeagbot.local",
		"remote_port":     float64(81),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %v, want %v", k, got[k], v)
		}
	}
}
