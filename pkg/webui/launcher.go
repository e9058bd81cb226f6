package webui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Environment is the host class the launcher runs under. Hosted notebooks
// need tunnel/share flags that make no sense on a local machine.
type Environment int

const (
	EnvLocal Environment = iota
	EnvColab
	EnvKaggle
)

func (e Environment) String() string {
	switch e {
	case EnvColab:
		return "colab"
	case EnvKaggle:
		return "kaggle"
	default:
		return "local"
	}
}

// DetectEnvironment classifies the host from notebook-specific env vars.
func DetectEnvironment() Environment {
	if os.Getenv("KAGGLE_URL_BASE") != "" || os.Getenv("KAGGLE_KERNEL_RUN_TYPE") != "" {
		return EnvKaggle
	}
	if os.Getenv("COLAB_RELEASE_TAG") != "" || os.Getenv("COLAB_GPU") != "" {
		return EnvColab
	}
	return EnvLocal
}

// kaggle blocks unauthenticated gradio tunnels
var kaggleArgs = []string{
	"--enable-insecure-extension-access",
	"--gradio-auth", "sdcli:sdcli",
}

// Launcher starts an installed WebUI with the merged flag set.
type Launcher struct {
	Profile     *Profile
	Root        string
	VenvPath    string
	Environment Environment
	// UserArgs override profile defaults with the same flag key
	UserArgs []string
	// tokens handed to the child via env, never argv
	CivitaiToken     string
	HuggingfaceToken string
	Quiet            bool

	// startProcess is swapped in tests
	startProcess func(ctx context.Context, dir string, env []string, name string, args ...string) error
}

func NewLauncher(profile *Profile, root, venvPath string) *Launcher {
	l := &Launcher{
		Profile:     profile,
		Root:        root,
		VenvPath:    venvPath,
		Environment: DetectEnvironment(),
	}
	l.startProcess = l.execProcess
	return l
}

func (l *Launcher) execProcess(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// flagKey isolates the flag name so "--theme=light" overrides "--theme=dark".
func flagKey(arg string) string {
	if !strings.HasPrefix(arg, "-") {
		return arg
	}
	if idx := strings.Index(arg, "="); idx > 0 {
		return arg[:idx]
	}
	return arg
}

// argUnit is a flag together with its space-separated value token, so that
// dropping "--gradio-auth" also drops the "user:pass" that follows it.
type argUnit struct {
	tokens []string
	key    string
}

func splitUnits(args []string) []argUnit {
	var units []argUnit
	for i := 0; i < len(args); i++ {
		unit := argUnit{tokens: []string{args[i]}, key: flagKey(args[i])}
		if strings.HasPrefix(args[i], "-") && !strings.Contains(args[i], "=") &&
			i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			unit.tokens = append(unit.tokens, args[i+1])
			i++
		}
		units = append(units, unit)
	}
	return units
}

// MergeArgs layers profile defaults, user overrides and environment flags.
// A user arg replaces a default sharing its flag key; environment flags are
// appended last and never duplicated.
func MergeArgs(defaults, user, env []string) []string {
	userUnits := splitUnits(user)
	overridden := make(map[string]bool)
	for _, u := range userUnits {
		overridden[u.key] = true
	}

	var merged []string
	present := make(map[string]bool)
	for _, u := range splitUnits(defaults) {
		if overridden[u.key] {
			continue
		}
		merged = append(merged, u.tokens...)
		present[u.key] = true
	}
	for _, u := range userUnits {
		merged = append(merged, u.tokens...)
		present[u.key] = true
	}
	for _, u := range splitUnits(env) {
		if present[u.key] {
			continue
		}
		merged = append(merged, u.tokens...)
		present[u.key] = true
	}
	return merged
}

// Argv builds the full child command line without running anything.
func (l *Launcher) Argv() []string {
	var envArgs []string
	switch l.Environment {
	case EnvColab:
		envArgs = l.Profile.HostedArgs
	case EnvKaggle:
		envArgs = append(append([]string{}, l.Profile.HostedArgs...), kaggleArgs...)
	}

	python := l.VenvPython()
	args := []string{python, l.Profile.MainScript}
	return append(args, MergeArgs(l.Profile.DefaultArgs, l.UserArgs, envArgs)...)
}

func (l *Launcher) VenvPython() string {
	if l.VenvPath == "" {
		return "python3"
	}
	return l.VenvPath + "/bin/python"
}

// Launch runs the WebUI from its checkout directory, streaming output until
// the process exits or ctx is cancelled.
func (l *Launcher) Launch(ctx context.Context) error {
	dir := l.Profile.InstallPath(l.Root)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("%s is not installed (expected at %s)", l.Profile.Name, dir)
	}

	env := os.Environ()
	if l.CivitaiToken != "" {
		env = append(env, "CIVITAI_API_TOKEN="+l.CivitaiToken)
	}
	if l.HuggingfaceToken != "" {
		env = append(env, "HF_TOKEN="+l.HuggingfaceToken)
	}

	argv := l.Argv()
	if !l.Quiet {
		fmt.Printf("Launching %s (%s environment)\n", l.Profile.Name, l.Environment)
	}
	if err := l.startProcess(ctx, dir, env, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("launching %s: %w", l.Profile.Name, err)
	}
	return nil
}
