package webui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/sdcli/sdcli/pkg"
	"github.com/sdcli/sdcli/pkg/notify"
)

// State is how far an installation has progressed. Each transition re-checks
// its own precondition, so Install can be re-run after a partial failure.
type State int

const (
	StateNotInstalled State = iota
	StateVenvReady
	StateCloned
	StateDepsInstalled
	StateLaunched
)

func (s State) String() string {
	switch s {
	case StateVenvReady:
		return "VENV_READY"
	case StateCloned:
		return "WEBUI_CLONED"
	case StateDepsInstalled:
		return "DEPENDENCIES_INSTALLED"
	case StateLaunched:
		return "LAUNCHED"
	default:
		return "NOT_INSTALLED"
	}
}

// pip installs on notebook hosts routinely take many minutes
const pipTimeout = 1800 * time.Second

// Installer drives one flavor from bare directory to runnable checkout.
type Installer struct {
	Profile  *Profile
	Root     string
	VenvPath string
	// SystemPython creates the venv; defaults to python3 on PATH
	SystemPython string
	Notifier     notify.Notifier
	Quiet        bool

	// runCommand is swapped in tests to avoid real subprocesses
	runCommand func(ctx context.Context, dir string, name string, args ...string) error
}

func NewInstaller(profile *Profile, root, venvPath string) *Installer {
	inst := &Installer{
		Profile:      profile,
		Root:         root,
		VenvPath:     venvPath,
		SystemPython: "python3",
	}
	inst.runCommand = inst.execCommand
	return inst
}

func (inst *Installer) execCommand(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if !inst.Quiet {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// VenvPython is the interpreter inside the managed venv.
func (inst *Installer) VenvPython() string {
	return filepath.Join(inst.VenvPath, "bin", "python")
}

// InstallDir is the flavor's checkout path under the root.
func (inst *Installer) InstallDir() string {
	return inst.Profile.InstallPath(inst.Root)
}

// CurrentState probes the filesystem; it never trusts recorded state.
func (inst *Installer) CurrentState() State {
	if !inst.venvWorks() {
		return StateNotInstalled
	}
	dir := inst.InstallDir()
	if _, err := os.Stat(filepath.Join(dir, inst.Profile.MainScript)); err != nil {
		return StateVenvReady
	}
	if _, err := os.Stat(filepath.Join(dir, ".deps-installed")); err != nil {
		return StateCloned
	}
	return StateDepsInstalled
}

func (inst *Installer) venvWorks() bool {
	py := inst.VenvPython()
	if _, err := os.Stat(py); err != nil {
		return false
	}
	err := exec.Command(py, "-m", "pip", "--version").Run()
	return err == nil
}

// Install runs every transition up to DEPENDENCIES_INSTALLED.
func (inst *Installer) Install(ctx context.Context) error {
	if err := inst.SetupVenv(ctx); err != nil {
		return err
	}
	if err := inst.InstallWebUI(ctx, false); err != nil {
		return err
	}
	return inst.InstallDeps(ctx)
}

// SetupVenv creates the virtual environment unless a working one exists.
func (inst *Installer) SetupVenv(ctx context.Context) error {
	if inst.venvWorks() {
		if !inst.Quiet {
			fmt.Printf("Using existing virtual environment at %s\n", inst.VenvPath)
		}
		return nil
	}
	if !inst.Quiet {
		fmt.Printf("Creating virtual environment at %s\n", inst.VenvPath)
	}
	if err := os.MkdirAll(filepath.Dir(inst.VenvPath), 0755); err != nil {
		return err
	}
	if err := inst.runCommand(ctx, "", inst.SystemPython, "-m", "venv", inst.VenvPath); err != nil {
		return fmt.Errorf("creating venv: %w", err)
	}
	return nil
}

// InstallWebUI clones the flavor's repository, or updates an existing
// checkout when update is set.
func (inst *Installer) InstallWebUI(ctx context.Context, update bool) error {
	dir := inst.InstallDir()
	if _, err := os.Stat(dir); err == nil {
		if !update {
			if !inst.Quiet {
				fmt.Printf("%s already installed at %s\n", inst.Profile.Name, dir)
			}
			return nil
		}
		return inst.updateCheckout(dir)
	}

	if !inst.Quiet {
		fmt.Printf("Cloning %s into %s\n", inst.Profile.RepoURL, dir)
	}
	opts := &git.CloneOptions{
		URL:   inst.Profile.RepoURL,
		Depth: 1,
	}
	if !inst.Quiet {
		opts.Progress = os.Stdout
	}
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return fmt.Errorf("cloning %s: %w", inst.Profile.Name, err)
	}
	return nil
}

func (inst *Installer) updateCheckout(dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.Pull(&git.PullOptions{RemoteName: "origin"})
	if err == git.NoErrAlreadyUpToDate {
		if !inst.Quiet {
			fmt.Printf("%s is up to date\n", inst.Profile.Name)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", inst.Profile.Name, err)
	}
	if !inst.Quiet {
		fmt.Printf("Updated %s\n", inst.Profile.Name)
	}
	return nil
}

// InstallDeps runs pip against the checkout's requirements file. Failures are
// logged but not fatal: many WebUI requirement sets half-fail on notebook
// images yet the app still starts.
func (inst *Installer) InstallDeps(ctx context.Context) error {
	dir := inst.InstallDir()
	if _, err := os.Stat(filepath.Join(dir, ".deps-installed")); err == nil {
		if !inst.Quiet {
			fmt.Printf("Dependencies already installed for %s\n", inst.Profile.Name)
		}
		return nil
	}
	req := filepath.Join(dir, "requirements.txt")
	if _, err := os.Stat(req); err != nil {
		slog.Warn("no requirements.txt, skipping dependency install", "webui", inst.Profile.Name)
		return nil
	}

	if !inst.Quiet {
		fmt.Printf("Installing dependencies for %s\n", inst.Profile.Name)
	}
	pctx, cancel := context.WithTimeout(ctx, pipTimeout)
	defer cancel()
	err := inst.runCommand(pctx, dir, inst.VenvPython(), "-m", "pip", "install", "-r", req)
	if err != nil {
		slog.Warn("dependency install did not complete cleanly, continuing", "webui", inst.Profile.Name, "error", err)
		notify.Error(inst.Notifier, "Install", "some dependencies failed to install for "+inst.Profile.Name)
	}
	// marker lets CurrentState skip a repeat install
	if werr := os.WriteFile(filepath.Join(dir, ".deps-installed"), []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0644); werr != nil {
		slog.Warn("could not write install marker", "error", werr)
	}
	return nil
}

// InstallExtensions clones each repository URL into the flavor's extension
// directory, skipping ones already present.
func (inst *Installer) InstallExtensions(ctx context.Context, repoURLs []string) error {
	extDir := inst.Profile.CategoryPath(inst.Root, CatExtension)
	if err := os.MkdirAll(extDir, 0755); err != nil {
		return err
	}

	for _, repoURL := range repoURLs {
		name := extensionDirName(repoURL)
		target := filepath.Join(extDir, name)
		if _, err := os.Stat(target); err == nil {
			if !inst.Quiet {
				fmt.Printf("Extension %s already installed\n", name)
			}
			continue
		}
		if !inst.Quiet {
			fmt.Printf("Installing extension %s\n", name)
		}
		_, err := pkg.CloneRepo(repoURL, target, 1, !inst.Quiet)
		if err != nil {
			slog.Warn("extension install failed, continuing", "extension", name, "error", err)
			notify.Error(inst.Notifier, "Install", "extension failed: "+name)
		}
	}
	return nil
}

func extensionDirName(repoURL string) string {
	base := filepath.Base(repoURL)
	if ext := filepath.Ext(base); ext == ".git" {
		base = base[:len(base)-len(ext)]
	}
	return base
}
