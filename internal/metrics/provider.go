package metrics

// #region imports
import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// #endregion

// #region command-config

// CommandConfig describes how to derive a snapshot from the project's
// own toolchain. Commands run with Dir as the working directory.
type CommandConfig struct {
	TestCommand  []string // e.g. ["go", "test", "-cover", "./..."]
	BuildCommand []string // e.g. ["go", "build", "./..."]
	ManifestPath string   // dependency manifest, one entry per line
	Dir          string
}

// #endregion

// #region command-provider

// CommandProvider measures project health by running the configured
// test and build commands and counting manifest dependencies.
type CommandProvider struct {
	cfg CommandConfig
}

// NewCommandProvider returns a provider for the given command config.
func NewCommandProvider(cfg CommandConfig) *CommandProvider {
	return &CommandProvider{cfg: cfg}
}

// #endregion

// #region measure

var coverageRe = regexp.MustCompile(`coverage:\s+([0-9.]+)%`)
var passCountRe = regexp.MustCompile(`(\d+)\s+passed`)
var failCountRe = regexp.MustCompile(`(\d+)\s+failed`)

// Measure runs the test and build commands and derives a snapshot.
// Command failures are measurements, not errors: a failing test
// command yields a zero pass rate rather than an error return.
func (p *CommandProvider) Measure(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{CodeComplexity: 1.0}

	if len(p.cfg.TestCommand) > 0 {
		out, err := p.run(ctx, p.cfg.TestCommand)
		if ctx.Err() != nil {
			return Snapshot{}, ctx.Err()
		}
		snap.TestPassRate = passRate(out, err == nil)
		snap.TestCoverage = coverage(out)
	}

	if len(p.cfg.BuildCommand) > 0 {
		_, err := p.run(ctx, p.cfg.BuildCommand)
		if ctx.Err() != nil {
			return Snapshot{}, ctx.Err()
		}
		snap.BuildSuccess = err == nil
	}

	if p.cfg.ManifestPath != "" {
		n, err := countManifest(p.cfg.ManifestPath)
		if err != nil {
			return Snapshot{}, fmt.Errorf("count dependencies: %w", err)
		}
		snap.DependencyCount = n
	}

	return snap, nil
}

func (p *CommandProvider) run(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.cfg.Dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// #endregion

// #region parsing

// passRate extracts a pass rate from test output. Explicit
// passed/failed counts win; otherwise exit status decides 1.0 or 0.0.
func passRate(out string, exitOK bool) float64 {
	passed := matchCount(passCountRe, out)
	failed := matchCount(failCountRe, out)
	if passed+failed > 0 {
		return float64(passed) / float64(passed+failed)
	}
	if exitOK {
		return 1.0
	}
	return 0.0
}

// coverage extracts the highest reported coverage percentage as [0,1].
func coverage(out string) float64 {
	best := 0.0
	for _, m := range coverageRe.FindAllStringSubmatch(out, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if v/100.0 > best {
			best = v / 100.0
		}
	}
	return best
}

func matchCount(re *regexp.Regexp, out string) int {
	total := 0
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total += n
	}
	return total
}

// countManifest counts non-empty, non-comment lines.
func countManifest(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		n++
	}
	return n, sc.Err()
}

// #endregion
