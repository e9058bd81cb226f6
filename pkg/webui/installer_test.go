package webui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeVenv plants an executable python stub so venv probing succeeds without
// a real interpreter.
func fakeVenv(t *testing.T, venvPath string) {
	t.Helper()
	bin := filepath.Join(venvPath, "bin")
	if err := os.MkdirAll(bin, 0755); err != nil {
		t.Fatal(err)
	}
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(filepath.Join(bin, "python"), script, 0755); err != nil {
		t.Fatal(err)
	}
}

type recordedCall struct {
	dir  string
	name string
	args []string
}

func recordingInstaller(t *testing.T) (*Installer, *[]recordedCall) {
	t.Helper()
	root := t.TempDir()
	inst := NewInstaller(Get("A1111"), root, filepath.Join(root, "venv"))
	inst.Quiet = true

	var calls []recordedCall
	inst.runCommand = func(ctx context.Context, dir, name string, args ...string) error {
		calls = append(calls, recordedCall{dir: dir, name: name, args: args})
		return nil
	}
	return inst, &calls
}

func TestSetupVenvCreatesWhenMissing(t *testing.T) {
	inst, calls := recordingInstaller(t)

	if err := inst.SetupVenv(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	call := (*calls)[0]
	if call.name != "python3" {
		t.Errorf("interpreter = %q", call.name)
	}
	want := []string{"-m", "venv", inst.VenvPath}
	for i, arg := range want {
		if call.args[i] != arg {
			t.Errorf("arg %d = %q, want %q", i, call.args[i], arg)
		}
	}
}

func TestSetupVenvSkipsWorkingVenv(t *testing.T) {
	inst, calls := recordingInstaller(t)
	fakeVenv(t, inst.VenvPath)

	if err := inst.SetupVenv(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 0 {
		t.Errorf("venv recreated despite working interpreter: %+v", *calls)
	}
}

func TestInstallWebUISkipsExistingCheckout(t *testing.T) {
	inst, _ := recordingInstaller(t)
	if err := os.MkdirAll(inst.InstallDir(), 0755); err != nil {
		t.Fatal(err)
	}
	// no network clone must happen for an existing dir
	if err := inst.InstallWebUI(context.Background(), false); err != nil {
		t.Fatal(err)
	}
}

func TestInstallDepsSkipsWithoutRequirements(t *testing.T) {
	inst, calls := recordingInstaller(t)
	if err := os.MkdirAll(inst.InstallDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := inst.InstallDeps(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 0 {
		t.Errorf("pip ran without a requirements file")
	}
}

func TestInstallDepsToleratesPipFailure(t *testing.T) {
	inst, _ := recordingInstaller(t)
	dir := inst.InstallDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("torch\n"), 0644); err != nil {
		t.Fatal(err)
	}
	inst.runCommand = func(ctx context.Context, d, name string, args ...string) error {
		return errors.New("pip exploded")
	}

	if err := inst.InstallDeps(context.Background()); err != nil {
		t.Fatalf("pip failure must not be fatal: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".deps-installed")); err != nil {
		t.Error("install marker not written")
	}
}

func TestInstallDepsRunsPipFromCheckout(t *testing.T) {
	inst, calls := recordingInstaller(t)
	dir := inst.InstallDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("torch\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := inst.InstallDeps(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 1 {
		t.Fatalf("calls = %d", len(*calls))
	}
	call := (*calls)[0]
	if call.dir != dir {
		t.Errorf("pip dir = %q, want checkout %q", call.dir, dir)
	}
	if call.name != inst.VenvPython() {
		t.Errorf("pip interpreter = %q, want venv python", call.name)
	}
}

func TestCurrentStateProgression(t *testing.T) {
	inst, _ := recordingInstaller(t)

	if got := inst.CurrentState(); got != StateNotInstalled {
		t.Fatalf("fresh root state = %v", got)
	}

	fakeVenv(t, inst.VenvPath)
	if got := inst.CurrentState(); got != StateVenvReady {
		t.Fatalf("state after venv = %v", got)
	}

	dir := inst.InstallDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, inst.Profile.MainScript), []byte("# webui\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := inst.CurrentState(); got != StateCloned {
		t.Fatalf("state after clone = %v", got)
	}

	if err := os.WriteFile(filepath.Join(dir, ".deps-installed"), []byte("now\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := inst.CurrentState(); got != StateDepsInstalled {
		t.Fatalf("state after deps = %v", got)
	}
}

// cold install then warm re-run: every step runs once, then every step is a
// no-op that still succeeds. The checkout is pre-seeded so no network clone
// happens.
func TestInstallScenarioColdThenWarm(t *testing.T) {
	inst, calls := recordingInstaller(t)
	dir := inst.InstallDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		inst.Profile.MainScript: "# webui\n",
		"requirements.txt":      "torch\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// the venv step "creates" a working interpreter when invoked
	base := inst.runCommand
	inst.runCommand = func(ctx context.Context, d, name string, args ...string) error {
		if err := base(ctx, d, name, args...); err != nil {
			return err
		}
		if len(args) > 1 && args[0] == "-m" && args[1] == "venv" {
			fakeVenv(t, inst.VenvPath)
		}
		return nil
	}

	if err := inst.Install(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 2 {
		t.Fatalf("cold install ran %d commands, want venv + pip", len(*calls))
	}
	if got := inst.CurrentState(); got != StateDepsInstalled {
		t.Fatalf("state after cold install = %v", got)
	}

	before := len(*calls)
	if err := inst.Install(context.Background()); err != nil {
		t.Fatalf("warm re-run must succeed: %v", err)
	}
	if len(*calls) != before {
		t.Errorf("warm re-run ran %d extra commands", len(*calls)-before)
	}
}

func TestInstallExtensionsSkipsExisting(t *testing.T) {
	inst, _ := recordingInstaller(t)
	extDir := inst.Profile.CategoryPath(inst.Root, CatExtension)
	existing := filepath.Join(extDir, "sd-webui-controlnet")
	if err := os.MkdirAll(existing, 0755); err != nil {
		t.Fatal(err)
	}

	err := inst.InstallExtensions(context.Background(), []string{
		"https://github.com/Mikubill/sd-webui-controlnet.git",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestExtensionDirName(t *testing.T) {
	cases := map[string]string{
		"https://github.com/Mikubill/sd-webui-controlnet.git": "sd-webui-controlnet",
		"https://github.com/Bing-su/adetailer":                "adetailer",
	}
	for in, want := range cases {
		if got := extensionDirName(in); got != want {
			t.Errorf("extensionDirName(%q) = %q, want %q", in, got, want)
		}
	}
}
