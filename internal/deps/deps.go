package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary psxinstall relies on.
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
	Resolved    string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Blocking reports whether the missing dependency prevents a run.
func (s Status) Blocking() bool {
	return !s.Available && !s.Optional
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Resolved = resolved
	status.Available = true
	return status
}
