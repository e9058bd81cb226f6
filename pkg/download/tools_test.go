package download

import (
	"strings"
	"testing"
)

func TestToolArgvShapes(t *testing.T) {
	cases := []struct {
		tool *ToolStrategy
		want []string
	}{
		{NewAria2c("", ""), []string{"--dir", "/d", "--out", "m.bin", "--continue"}},
		{NewWget("", ""), []string{"-O", "/d/m.bin", "--no-check-certificate"}},
		{NewCurl("", ""), []string{"-L", "-o", "/d/m.bin"}},
	}
	for _, tc := range cases {
		args, env := tc.tool.buildArgs("https://example.com/m.bin", "/d/m.bin", "")
		joined := strings.Join(args, " ")
		for _, w := range tc.want {
			if !strings.Contains(joined, w) {
				t.Errorf("%s argv missing %q: %s", tc.tool.Name(), w, joined)
			}
		}
		if args[len(args)-1] != "https://example.com/m.bin" {
			t.Errorf("%s: URL must be the final argument: %s", tc.tool.Name(), joined)
		}
		if len(env) != 0 {
			t.Errorf("%s: no auth requested but env set: %v", tc.tool.Name(), env)
		}
	}
}

func TestToolTokenNeverInArgv(t *testing.T) {
	const token = "secret-token-value"
	tools := []*ToolStrategy{
		NewAria2c(token, ""),
		NewWget(token, ""),
		NewCurl(token, ""),
	}
	for _, tool := range tools {
		args, env := tool.buildArgs("https://civitai.com/api/download/models/1", "/d/m.bin", "/tmp/authfile")
		for _, arg := range args {
			if strings.Contains(arg, token) {
				t.Errorf("%s leaks the token through argv: %q", tool.Name(), arg)
			}
		}
		for _, kv := range env {
			if strings.Contains(kv, token) {
				t.Errorf("%s leaks the token through env values: %q", tool.Name(), kv)
			}
		}
	}
}

func TestToolHeaderLineSyntax(t *testing.T) {
	header := "Authorization: Bearer abc"
	if got := NewAria2c("", "").headerLine(header); got != "header=Authorization: Bearer abc" {
		t.Errorf("aria2c line = %q", got)
	}
	if got := NewWget("", "").headerLine(header); got != "header = Authorization: Bearer abc" {
		t.Errorf("wget line = %q", got)
	}
	if got := NewCurl("", "").headerLine(header); got != header {
		t.Errorf("curl line = %q", got)
	}
}

func TestToolAuthHeaderHostGating(t *testing.T) {
	tool := NewCurl("cvt", "hf")
	if h := tool.authHeader("https://civitai.com/api/download/models/1"); h != "Authorization: Bearer cvt" {
		t.Errorf("civitai header = %q", h)
	}
	if h := tool.authHeader("https://huggingface.co/org/repo/resolve/main/m.bin"); h != "Authorization: Bearer hf" {
		t.Errorf("huggingface header = %q", h)
	}
	if h := tool.authHeader("https://example.com/m.bin"); h != "" {
		t.Errorf("open host got a header: %q", h)
	}
}

func TestTail(t *testing.T) {
	out := "line1\nline2\nline3\nline4\nline5"
	if got := tail(out); got != "line3 | line4 | line5" {
		t.Errorf("tail = %q", got)
	}
	if got := tail("only"); got != "only" {
		t.Errorf("tail = %q", got)
	}
}
