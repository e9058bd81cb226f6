package download

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sdcli/sdcli/pkg/catalog"
	"github.com/sdcli/sdcli/pkg/webui"
)

func TestParseSelectionNumbersGreedy(t *testing.T) {
	cases := []struct {
		input string
		size  int
		want  []int
	}{
		{"123", 15, []int{12, 3}},
		{"99", 15, nil},
		{"1 2 3", 15, []int{1, 2, 3}},
		{"1,2,3", 15, []int{1, 2, 3}},
		{"15", 15, []int{15}},
		{"16", 15, nil},
		{"0", 15, nil},
		{"132", 15, []int{13, 2}},
		{"1 1 2", 15, []int{1, 2}},
		{"abc 4", 15, []int{4}},
		{"", 15, nil},
		{"12", 9, []int{1, 2}},
	}
	for _, tc := range cases {
		got := ParseSelectionNumbers(tc.input, tc.size)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSelectionNumbers(%q, %d) = %v, want %v", tc.input, tc.size, got, tc.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://huggingface.co/org/repo/blob/main/model.safetensors":    "https://huggingface.co/org/repo/resolve/main/model.safetensors",
		"https://github.com/org/repo/blob/main/config.yaml":              "https://github.com/org/repo/raw/main/config.yaml",
		"https://huggingface.co/org/repo/resolve/main/model.safetensors": "https://huggingface.co/org/repo/resolve/main/model.safetensors",
		"https://example.com/blob/file.bin":                              "https://example.com/blob/file.bin",
	}
	for in, want := range cases {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInferFilename(t *testing.T) {
	name, deferred := InferFilename("https://example.com/models/thing.safetensors")
	if deferred || name != "thing.safetensors" {
		t.Fatalf("got (%q, %v)", name, deferred)
	}

	if _, deferred := InferFilename("https://civitai.com/api/download/models/12345"); !deferred {
		t.Error("civitai URLs must defer filename resolution")
	}
	if _, deferred := InferFilename("https://drive.google.com/uc?id=abc"); !deferred {
		t.Error("google drive URLs must defer filename resolution")
	}

	name, deferred = InferFilename("https://example.com/get?filename=v1.ckpt")
	if deferred || name != "v1.ckpt" {
		t.Errorf("filename query parameter not honored: (%q, %v)", name, deferred)
	}

	name, deferred = InferFilename("https://example.com/download/latest")
	if deferred || !strings.HasPrefix(name, "downloaded_file_") {
		t.Errorf("extensionless path should yield placeholder, got (%q, %v)", name, deferred)
	}
}

func TestCleanFilename(t *testing.T) {
	if got := CleanFilename(`my<model>:v1?.safetensors`); got != "my_model__v1_.safetensors" {
		t.Errorf("got %q", got)
	}
	long := strings.Repeat("a", 300) + ".ckpt"
	clean := CleanFilename(long)
	if len(clean) > 200 {
		t.Errorf("length not capped: %d", len(clean))
	}
	if !strings.HasSuffix(clean, ".ckpt") {
		t.Errorf("extension lost: %q", clean)
	}
}

func TestSplitBracketFilename(t *testing.T) {
	url, name := SplitBracketFilename("https://example.com/x.bin[custom.safetensors]")
	if url != "https://example.com/x.bin" || name != "custom.safetensors" {
		t.Errorf("got (%q, %q)", url, name)
	}
	url, name = SplitBracketFilename("https://example.com/x.bin")
	if url != "https://example.com/x.bin" || name != "" {
		t.Errorf("got (%q, %q)", url, name)
	}
}

func TestParseCustomTextStickyCategory(t *testing.T) {
	text := `
# checkpoints come first
https://example.com/a.safetensors

$lora
https://example.com/b.safetensors
https://example.com/c.safetensors

vae
https://example.com/d.pt
`
	jobs := ParseCustomText(text)
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	wantCats := []string{webui.CatModel, webui.CatLoRA, webui.CatLoRA, webui.CatVAE}
	for i, want := range wantCats {
		if jobs[i].Category != want {
			t.Errorf("job %d category = %q, want %q", i, jobs[i].Category, want)
		}
	}
}

func TestParseCustomTextCategoryPersistsUntilOverridden(t *testing.T) {
	lines := []string{"$lora", "http://a/1", "vae", "http://a/2", "http://a/3"}
	jobs := ParseCustomText(strings.Join(lines, "\n"))
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	want := []string{webui.CatLoRA, webui.CatVAE, webui.CatVAE}
	for i, cat := range want {
		if jobs[i].Category != cat {
			t.Errorf("url %d category = %q, want %q", i+1, jobs[i].Category, cat)
		}
	}
}

func TestParseCustomTextBareURLsUseKeywordRouting(t *testing.T) {
	text := `
https://huggingface.co/lllyasviel/repo/resolve/main/controlnet-canny.pth
https://example.com/nice.vae.pt
https://example.com/plain.safetensors

$lora
https://example.com/controlnet-lookalike.pth
`
	jobs := ParseCustomText(text)
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	wantCats := []string{webui.CatControlNet, webui.CatVAE, webui.CatModel, webui.CatLoRA}
	for i, want := range wantCats {
		if jobs[i].Category != want {
			t.Errorf("job %d category = %q, want %q", i, jobs[i].Category, want)
		}
	}
}

func TestParseCustomTextInlinePrefixAndBracket(t *testing.T) {
	jobs := ParseCustomText(`$cnet:https://example.com/canny.pth[control_canny.pth]`)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Category != webui.CatControlNet {
		t.Errorf("category = %q", jobs[0].Category)
	}
	if jobs[0].Filename != "control_canny.pth" {
		t.Errorf("filename = %q", jobs[0].Filename)
	}
}

func TestParseCustomTextNormalizesURLs(t *testing.T) {
	jobs := ParseCustomText("https://huggingface.co/org/repo/blob/main/m.safetensors")
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if !strings.Contains(jobs[0].URL, "/resolve/") {
		t.Errorf("blob URL not rewritten: %q", jobs[0].URL)
	}
}

func TestDedupePreservesFirstSeenOrder(t *testing.T) {
	jobs := []Job{
		{URL: "u1", Filename: "a.bin"},
		{URL: "u2", Filename: "b.bin"},
		{URL: "u3", Filename: "a.bin"},
		{URL: "u4", DeferName: true},
		{URL: "u4", DeferName: true},
	}
	got := Dedupe(jobs)
	if len(got) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(got))
	}
	if got[0].URL != "u1" || got[1].URL != "u2" || got[2].URL != "u4" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestResolverFromNames(t *testing.T) {
	cat, err := catalog.Load()
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(cat)

	jobs := r.FromNames(catalog.CategoryModel, []string{"Stable Diffusion 1.5", "no such model", "none"})
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Category != webui.CatModel {
		t.Errorf("category = %q", jobs[0].Category)
	}
	if jobs[0].Filename == "" && !jobs[0].DeferName {
		t.Error("job has neither filename nor deferred marker")
	}

	table, _ := cat.Table(catalog.CategoryVAE)
	all := r.FromNames(catalog.CategoryVAE, []string{AllSentinel})
	if len(all) != table.Len() {
		t.Errorf("ALL expanded to %d jobs, want %d", len(all), table.Len())
	}
}

func TestResolverFromNumbers(t *testing.T) {
	cat, err := catalog.Load()
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(cat)

	table, _ := cat.Table(catalog.CategoryModel)
	first, _ := table.At(1)
	second, _ := table.At(2)

	jobs := r.FromNumbers(catalog.CategoryModel, "1, 2")
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].URL != NormalizeURL(first.URL) || jobs[1].URL != NormalizeURL(second.URL) {
		t.Errorf("numeric selection did not follow table order")
	}
}
