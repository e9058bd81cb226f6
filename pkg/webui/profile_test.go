package webui

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEveryFlavorResolvesEveryCategory(t *testing.T) {
	for _, flavor := range Flavors() {
		p := Get(flavor)
		paths := p.ResolvePaths("/content")
		for _, cat := range Categories {
			dir, ok := paths[cat]
			if !ok || dir == "" {
				t.Errorf("flavor %s: category %s has no path", flavor, cat)
			}
			if !strings.HasPrefix(dir, filepath.Join("/content", p.InstallDir)) {
				t.Errorf("flavor %s: category %s resolves outside the install dir: %s", flavor, cat, dir)
			}
		}
	}
}

func TestMinimalFlavorDefaultsToRoot(t *testing.T) {
	p := Get("FaceFusion")
	paths := p.ResolvePaths("/content")
	root := p.InstallPath("/content")
	for _, cat := range Categories {
		if paths[cat] != root {
			t.Errorf("category %s should fall back to the WebUI root, got %s", cat, paths[cat])
		}
	}
}

func TestMainScriptPerFlavor(t *testing.T) {
	if got := Get("ComfyUI").MainScript; got != "main.py" {
		t.Errorf("ComfyUI main script = %s, want main.py", got)
	}
	for _, flavor := range []string{"A1111", "Forge", "ReForge", "SD-UX", "Classic"} {
		if got := Get(flavor).MainScript; got != "launch.py" {
			t.Errorf("%s main script = %s, want launch.py", flavor, got)
		}
	}
}

func TestUnknownFlavorFallsBack(t *testing.T) {
	p := Get("NoSuchUI")
	if p.Name != DefaultFlavor {
		t.Errorf("unknown flavor resolved to %s, want %s", p.Name, DefaultFlavor)
	}
	if Known("NoSuchUI") {
		t.Error("unknown flavor reported as known")
	}
}

func TestA1111Layout(t *testing.T) {
	p := Get("A1111")
	paths := p.ResolvePaths("/content")
	want := map[string]string{
		CatModel:      "/content/stable-diffusion-webui/models/Stable-diffusion",
		CatVAE:        "/content/stable-diffusion-webui/models/VAE",
		CatLoRA:       "/content/stable-diffusion-webui/models/Lora",
		CatControlNet: "/content/stable-diffusion-webui/models/ControlNet",
		CatExtension:  "/content/stable-diffusion-webui/extensions",
	}
	for cat, dir := range want {
		if paths[cat] != dir {
			t.Errorf("A1111 %s = %s, want %s", cat, paths[cat], dir)
		}
	}
}
