// Package webui knows the on-disk layout, repository and launch conventions of
// every supported Stable-Diffusion WebUI flavor, and drives install/launch.
package webui

import (
	"path/filepath"
	"sort"
)

// Asset categories routed to flavor-specific subdirectories. A flavor that has
// no directory for a category stores it at the WebUI root.
const (
	CatModel      = "model"
	CatVAE        = "vae"
	CatLoRA       = "lora"
	CatEmbedding  = "embed"
	CatControlNet = "control"
	CatExtension  = "extension"
	CatADetailer  = "adetailer"
	CatUpscale    = "upscale"
	CatCLIP       = "clip"
	CatUNet       = "unet"
	CatClipVision = "clip_vision"
	CatEncoder    = "encoder"
	CatDiffusers  = "diffusers"
	CatConfig     = "config"
)

// Categories lists every routing category. ResolvePaths returns a value for
// each of these regardless of flavor.
var Categories = []string{
	CatModel, CatVAE, CatLoRA, CatEmbedding, CatControlNet, CatExtension,
	CatADetailer, CatUpscale, CatCLIP, CatUNet, CatClipVision, CatEncoder,
	CatDiffusers, CatConfig,
}

// Profile describes one WebUI flavor.
type Profile struct {
	Name       string
	RepoURL    string
	Branch     string
	InstallDir string // directory name under the install root
	MainScript string
	// category -> relative subdirectory; empty string means the WebUI root
	Dirs        map[string]string
	DefaultArgs []string
	// extra args forced on hosted notebook environments (Colab/Kaggle)
	HostedArgs []string
}

// a1111Dirs is the layout shared by the A1111 lineage (Forge, ReForge, SD-UX,
// Classic are all forks keeping the models/ tree).
func a1111Dirs() map[string]string {
	return map[string]string{
		CatModel:      "models/Stable-diffusion",
		CatVAE:        "models/VAE",
		CatLoRA:       "models/Lora",
		CatEmbedding:  "embeddings",
		CatControlNet: "models/ControlNet",
		CatExtension:  "extensions",
		CatADetailer:  "models/adetailer",
		CatUpscale:    "models/ESRGAN",
		CatCLIP:       "models/text_encoder",
		CatUNet:       "models/unet",
		CatClipVision: "models/clip_vision",
		CatEncoder:    "models/text_encoder",
		CatDiffusers:  "models/diffusers",
		CatConfig:     "",
	}
}

var profiles = map[string]*Profile{
	"A1111": {
		Name:       "A1111",
		RepoURL:    "https://github.com/AUTOMATIC1111/stable-diffusion-webui.git",
		InstallDir: "stable-diffusion-webui",
		MainScript: "launch.py",
		Dirs:       a1111Dirs(),
		DefaultArgs: []string{
			"--enable-insecure-extension-access",
			"--theme=dark",
			"--disable-console-progressbars",
		},
		HostedArgs: []string{"--share"},
	},
	"ComfyUI": {
		Name:       "ComfyUI",
		RepoURL:    "https://github.com/comfyanonymous/ComfyUI.git",
		InstallDir: "ComfyUI",
		MainScript: "main.py",
		Dirs: map[string]string{
			CatModel:      "models/checkpoints",
			CatVAE:        "models/vae",
			CatLoRA:       "models/loras",
			CatEmbedding:  "models/embeddings",
			CatControlNet: "models/controlnet",
			CatExtension:  "custom_nodes",
			CatADetailer:  "models/ultralytics",
			CatUpscale:    "models/upscale_models",
			CatCLIP:       "models/clip",
			CatUNet:       "models/unet",
			CatClipVision: "models/clip_vision",
			CatEncoder:    "models/text_encoders",
			CatDiffusers:  "models/diffusers",
			CatConfig:     "models/configs",
		},
		DefaultArgs: []string{"--listen"},
		HostedArgs:  []string{},
	},
	"Forge": {
		Name:       "Forge",
		RepoURL:    "https://github.com/lllyasviel/stable-diffusion-webui-forge.git",
		InstallDir: "stable-diffusion-webui-forge",
		MainScript: "launch.py",
		Dirs:       a1111Dirs(),
		DefaultArgs: []string{
			"--enable-insecure-extension-access",
			"--theme=dark",
		},
		HostedArgs: []string{"--share"},
	},
	"ReForge": {
		Name:       "ReForge",
		RepoURL:    "https://github.com/Panchovix/stable-diffusion-webui-reForge.git",
		InstallDir: "stable-diffusion-webui-reForge",
		MainScript: "launch.py",
		Dirs:       a1111Dirs(),
		DefaultArgs: []string{
			"--enable-insecure-extension-access",
			"--theme=dark",
		},
		HostedArgs: []string{"--share"},
	},
	"SD-UX": {
		Name:       "SD-UX",
		RepoURL:    "https://github.com/anapnoe/stable-diffusion-webui-ux.git",
		InstallDir: "stable-diffusion-webui-ux",
		MainScript: "launch.py",
		Dirs:       a1111Dirs(),
		DefaultArgs: []string{
			"--enable-insecure-extension-access",
			"--theme=dark",
		},
		HostedArgs: []string{"--share"},
	},
	"Classic": {
		Name:       "Classic",
		RepoURL:    "https://github.com/Haoming02/sd-webui-forge-classic.git",
		InstallDir: "sd-webui-forge-classic",
		MainScript: "launch.py",
		Dirs:       a1111Dirs(),
		DefaultArgs: []string{
			"--enable-insecure-extension-access",
		},
		HostedArgs: []string{"--share"},
	},
	// minimal flavor: no model tree, everything lives at the repo root
	"FaceFusion": {
		Name:        "FaceFusion",
		RepoURL:     "https://github.com/facefusion/facefusion.git",
		InstallDir:  "facefusion",
		MainScript:  "facefusion.py",
		Dirs:        map[string]string{},
		DefaultArgs: []string{"run"},
		HostedArgs:  []string{},
	},
}

// DefaultFlavor is used whenever settings carry no (or an unknown) flavor.
const DefaultFlavor = "A1111"

// Get returns the profile for a flavor, falling back to the default flavor
// for unknown names. Unknown flavors are a user-typo class, not an error.
func Get(flavor string) *Profile {
	if p, ok := profiles[flavor]; ok {
		return p
	}
	return profiles[DefaultFlavor]
}

func Known(flavor string) bool {
	_, ok := profiles[flavor]
	return ok
}

func Flavors() []string {
	retv := make([]string, 0, len(profiles))
	for k := range profiles {
		retv = append(retv, k)
	}
	sort.Strings(retv)
	return retv
}

// InstallPath is the absolute directory the flavor is cloned into.
func (p *Profile) InstallPath(installRoot string) string {
	return filepath.Join(installRoot, p.InstallDir)
}

// ResolvePaths maps every category to an absolute destination directory.
// Categories without a flavor-specific subdirectory resolve to the WebUI root.
func (p *Profile) ResolvePaths(installRoot string) map[string]string {
	base := p.InstallPath(installRoot)
	retv := make(map[string]string, len(Categories))
	for _, cat := range Categories {
		sub := p.Dirs[cat]
		if sub == "" {
			retv[cat] = base
			continue
		}
		retv[cat] = filepath.Join(base, filepath.FromSlash(sub))
	}
	return retv
}

// CategoryPath resolves a single category's destination directory.
func (p *Profile) CategoryPath(installRoot, category string) string {
	return p.ResolvePaths(installRoot)[category]
}
