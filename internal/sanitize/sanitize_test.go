package sanitize

import (
	"strings"
	"testing"
)

func TestHTML_StripsScripts(t *testing.T) {
	out := HTML(`<p>Hello <b>world</b></p><script>alert(1)</script>`)
	if strings.Contains(out, "script") {
		t.Errorf("expected script to be stripped, got %q", out)
	}
	if !strings.Contains(out, "<b>world</b>") {
		t.Errorf("expected safe formatting to survive, got %q", out)
	}
}

func TestHTML_StripsEventHandlers(t *testing.T) {
	out := HTML(`<a href="https://example.com" onclick="steal()">link</a>`)
	if strings.Contains(out, "onclick") {
		t.Errorf("expected onclick to be stripped, got %q", out)
	}
}

func TestHTML_Empty(t *testing.T) {
	if got := HTML(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestText_RemovesAllTags(t *testing.T) {
	got := Text("  <b>Nice</b> post & thanks <img src=x onerror=alert(1)>  ")
	if got != "Nice post & thanks" {
		t.Errorf("unexpected plain text %q", got)
	}
}

func TestText_KeepsPlainInput(t *testing.T) {
	if got := Text("Django"); got != "Django" {
		t.Errorf("expected Django, got %q", got)
	}
}

func TestText_EncodedMarkupStaysInert(t *testing.T) {
	tests := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt; hello",
		"&lt;img src=x onerror=alert(1)&gt;",
		"&amp;lt;b onclick=x&amp;gt;hello",
	}
	for _, in := range tests {
		out := Text(in)
		if strings.Contains(out, "<script") || strings.Contains(out, "<img") || strings.Contains(out, "<b ") {
			t.Errorf("Text(%q) produced markup %q", in, out)
		}
	}
}

func TestText_EncodedScriptKeepsSurroundingText(t *testing.T) {
	out := Text("&lt;script&gt;alert(1)&lt;/script&gt; hello")
	if !strings.HasSuffix(out, "hello") {
		t.Errorf("expected trailing text to survive, got %q", out)
	}
}

func TestText_LessThanInProse(t *testing.T) {
	if got := Text("a < b"); got != "a < b" {
		t.Errorf("expected comparison to survive, got %q", got)
	}
}
