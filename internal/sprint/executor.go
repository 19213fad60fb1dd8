package sprint

// #region imports
import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"sprintpilot/internal/policy"
)

// #endregion

// #region script-executor

// ScriptExecutor applies actions by shelling out to a configured
// improvement command. The action and focus area are appended as the
// final two arguments; each non-empty stdout line is treated as one
// produced artifact path.
type ScriptExecutor struct {
	Command []string
	Dir     string
}

// Apply runs the improvement command for one action.
func (s *ScriptExecutor) Apply(ctx context.Context, action policy.Action, focus policy.FocusArea) ([]string, error) {
	if len(s.Command) == 0 {
		return nil, fmt.Errorf("apply %s: no improve command configured", action)
	}

	args := append(append([]string{}, s.Command[1:]...), string(action), string(focus))
	cmd := exec.CommandContext(ctx, s.Command[0], args...)
	cmd.Dir = s.Dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", action, err)
	}

	var artifacts []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			artifacts = append(artifacts, line)
		}
	}
	return artifacts, nil
}

// #endregion
