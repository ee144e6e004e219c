package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", c.Server.Port)
	}
	if c.Database.Path != "labor.db" {
		t.Errorf("db path = %s", c.Database.Path)
	}

	ag, err := c.AgriculturalFloor()
	if err != nil {
		t.Fatalf("agricultural floor: %v", err)
	}
	if ag.StringFixed(2) != "7.25" {
		t.Errorf("agricultural floor = %s, want 7.25", ag.StringFixed(2))
	}
}

func TestFromYAML_OverridesDefaults(t *testing.T) {
	data := []byte(`
server:
  port: 9090
minimum_wage:
  non_agricultural: "15.74"
`)
	c, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", c.Server.Port)
	}
	// Unset keys keep their defaults.
	if c.Database.Path != "labor.db" {
		t.Errorf("db path = %s, want default", c.Database.Path)
	}
	nonAg, err := c.NonAgriculturalFloor()
	if err != nil {
		t.Fatalf("non-agricultural floor: %v", err)
	}
	if nonAg.StringFixed(2) != "15.74" {
		t.Errorf("non-agricultural floor = %s", nonAg.StringFixed(2))
	}
	ag, err := c.AgriculturalFloor()
	if err != nil {
		t.Fatalf("agricultural floor: %v", err)
	}
	if ag.StringFixed(2) != "7.25" {
		t.Errorf("agricultural floor = %s, want default 7.25", ag.StringFixed(2))
	}
}

func TestFromYAML_RejectsBadWage(t *testing.T) {
	if _, err := FromYAML([]byte("minimum_wage:\n  agricultural: \"a lot\"\n")); err == nil {
		t.Error("non-decimal wage must be rejected")
	}
	if _, err := FromYAML([]byte("not: [valid")); err == nil {
		t.Error("malformed YAML must be rejected")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Errorf("port = %d, want default", c.Server.Port)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labor.yml")
	if err := os.WriteFile(path, []byte("database:\n  path: /tmp/x.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database.Path != "/tmp/x.db" {
		t.Errorf("db path = %s", c.Database.Path)
	}
}
