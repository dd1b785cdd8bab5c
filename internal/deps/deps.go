package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"skyhaul/internal/config"
)

// Requirement defines an external binary Skyhaul can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Fastpath returns the requirement for the bulk-transfer binary.
func Fastpath(binary string) Requirement {
	return Requirement{
		Name:        "s5cmd",
		Command:     binary,
		Description: "Bulk S3 transfer fast path",
		Optional:    true,
	}
}

// Defaults lists the external binaries the pipeline can take advantage of.
func Defaults(cfg *config.Config) []Requirement {
	return []Requirement{
		Fastpath(cfg.FastPath.Binary),
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Available binaries carry their version string in Detail when the probe
// succeeds.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		if version, err := ProbeVersion(ctx, cmd); err == nil && version != "" {
			status.Detail = version
		}
		results = append(results, status)
	}
	return results
}

// ProbeVersion runs "<binary> version" with a short timeout and returns the
// first line of output.
func ProbeVersion(ctx context.Context, binary string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, binary, "version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", binary, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
