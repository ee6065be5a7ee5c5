package profile

import (
	"path/filepath"
	"testing"
)

func TestNewProfileIdentity(t *testing.T) {
	p := New("test", "load", "traffic", "Test profile")
	if p.Name != "test" || p.CommandType != "load" || p.SubcommandType != "traffic" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.Description != "Test profile" {
		t.Errorf("Description = %q, want %q", p.Description, "Test profile")
	}
}

func TestSetOptionAndGetOptionString(t *testing.T) {
	p := New("test", "load", "traffic", "")
	SetOption(&p, "target", "127.0.0.1:8080")
	SetOption(&p, "duration", 60)

	got, ok := GetOptionString(p, "target")
	if !ok || got != "127.0.0.1:8080" {
		t.Errorf("GetOptionString(target) = (%q, %v), want (127.0.0.1:8080, true)", got, ok)
	}
	if _, ok := GetOptionString(p, "missing"); ok {
		t.Error("expected missing key to return ok=false")
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p := New("test_profile", "scan", "port", "Port scan")
	SetOption(&p, "target", "192.168.1.1")
	SetOption(&p, "ports", "1-1024")

	if err := m.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !m.Exists("test_profile") {
		t.Error("expected profile to exist after save")
	}

	loaded, err := m.Load("test_profile")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "test_profile" || loaded.CommandType != "scan" {
		t.Errorf("unexpected loaded profile: %+v", loaded)
	}
	got, ok := GetOptionString(loaded, "target")
	if !ok || got != "192.168.1.1" {
		t.Errorf("GetOptionString(target) = (%q, %v), want (192.168.1.1, true)", got, ok)
	}
}

func TestManagerListSortedByName(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	for _, name := range []string{"gamma", "alpha", "beta"} {
		if err := m.Save(New(name, "load", "traffic", "")); err != nil {
			t.Fatalf("Save(%s) failed: %v", name, err)
		}
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	want := []string{"alpha", "beta", "gamma"}
	for i, name := range want {
		if list[i].Name != name {
			t.Errorf("list[%d].Name = %q, want %q", i, list[i].Name, name)
		}
	}
}

func TestManagerDelete(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.Save(New("to_delete", "load", "http", "")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !m.Exists("to_delete") {
		t.Fatal("expected profile to exist before delete")
	}

	if err := m.Delete("to_delete"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if m.Exists("to_delete") {
		t.Error("expected profile to be gone after delete")
	}
}

func TestManagerExportImport(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "exported.toml")
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p := New("original", "bench", "bandwidth", "Bandwidth test")
	SetOption(&p, "duration", 30)
	if err := m.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := m.Export("original", exportPath); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, err := m.Import(exportPath, "imported")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.Name != "imported" {
		t.Errorf("imported.Name = %q, want imported", imported.Name)
	}
	if imported.Description != "Bandwidth test" {
		t.Errorf("imported.Description = %q, want %q", imported.Description, "Bandwidth test")
	}
	if !m.Exists("imported") {
		t.Error("expected the imported profile to be saved under the new name")
	}
}

func TestLoadNonexistentProfileIsError(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if _, err := m.Load("nonexistent"); err == nil {
		t.Error("expected an error loading a nonexistent profile")
	}
}
