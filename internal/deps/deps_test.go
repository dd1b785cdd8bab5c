package deps_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"skyhaul/internal/config"
	"skyhaul/internal/deps"
)

func writeBinary(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write binary %s: %v", name, err)
	}
}

func TestCheckBinaries(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "s5cmd", "#!/bin/sh\necho 'v2.3.0-ok'\n")
	t.Setenv("PATH", dir)

	requirements := []deps.Requirement{
		deps.Fastpath("s5cmd"),
		{Name: "missing", Command: "definitely-not-present", Description: "ghost"},
		{Name: "blank", Command: "   ", Description: "unset"},
	}

	statuses := deps.CheckBinaries(context.Background(), requirements)
	if len(statuses) != len(requirements) {
		t.Fatalf("expected %d statuses, got %d", len(requirements), len(statuses))
	}

	fast := statuses[0]
	if !fast.Available {
		t.Fatalf("expected stubbed s5cmd to be available: %+v", fast)
	}
	if !fast.Optional {
		t.Fatal("fast path requirement should be optional")
	}
	if fast.Detail != "v2.3.0-ok" {
		t.Fatalf("expected probe output in detail, got %q", fast.Detail)
	}

	missing := statuses[1]
	if missing.Available {
		t.Fatal("missing binary reported as available")
	}
	if missing.Detail != `binary "definitely-not-present" not found` {
		t.Fatalf("unexpected detail for missing binary: %q", missing.Detail)
	}

	blank := statuses[2]
	if blank.Available || blank.Detail != "command not configured" {
		t.Fatalf("unexpected status for blank command: %+v", blank)
	}
}

func TestCheckBinariesSurvivesFailingProbe(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "s5cmd", "#!/bin/sh\nexit 3\n")
	t.Setenv("PATH", dir)

	statuses := deps.CheckBinaries(context.Background(), []deps.Requirement{deps.Fastpath("s5cmd")})
	if len(statuses) != 1 {
		t.Fatalf("expected one status, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatal("binary on PATH should be available even when the version probe fails")
	}
	if statuses[0].Detail != "" {
		t.Fatalf("expected empty detail after failed probe, got %q", statuses[0].Detail)
	}
}

func TestProbeVersion(t *testing.T) {
	dir := t.TempDir()
	writeBinary(t, dir, "s5cmd", "#!/bin/sh\necho 'v2.2.2'\necho 'extra line'\n")
	t.Setenv("PATH", dir)

	version, err := deps.ProbeVersion(context.Background(), "s5cmd")
	if err != nil {
		t.Fatalf("probe version: %v", err)
	}
	if version != "v2.2.2" {
		t.Fatalf("expected first output line, got %q", version)
	}

	if _, err := deps.ProbeVersion(context.Background(), "definitely-not-present"); err == nil {
		t.Fatal("expected error probing a missing binary")
	}
}

func TestDefaultsUseConfiguredBinary(t *testing.T) {
	cfg := config.Default()
	cfg.FastPath.Binary = "/opt/tools/s5cmd"

	requirements := deps.Defaults(&cfg)
	if len(requirements) != 1 {
		t.Fatalf("expected one default requirement, got %d", len(requirements))
	}
	if requirements[0].Command != "/opt/tools/s5cmd" {
		t.Fatalf("expected configured binary path, got %q", requirements[0].Command)
	}
	if requirements[0].Name != "s5cmd" {
		t.Fatalf("unexpected requirement name %q", requirements[0].Name)
	}
}
