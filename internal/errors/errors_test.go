package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	DisableColors()
	os.Exit(m.Run())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config", "W101", "Config file is not valid TOML", CategoryConfig},
		{"backend", "W121", "Backend rejected the credentials", CategoryBackend},
		{"archive", "W140", "Snapshot export failed", CategoryArchive},
		{"cli", "W161", "Missing argument", CategoryCLI},
		{"unknown", "W999", "Unknown error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New("W104"), "W104: Invalid app mode"},
		{New("W104").WithDetailf("mode %q", "editor"), `W104: Invalid app mode: mode "editor"`},
		{Newf(CategoryCLI, "no %s", "args"), "no args"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestWrapAndHasCode(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("export: %w", New("W120").Wrap(cause))

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !HasCode(err, "W120") || HasCode(err, "W121") {
		t.Error("HasCode")
	}
	if HasCode(cause, "W120") {
		t.Error("plain error has no code")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W120") != nil {
		t.Error("FromError(nil) should be nil")
	}
	coded := New("W141")
	if got := FromError(fmt.Errorf("wrap: %w", coded), "W120"); got != coded {
		t.Error("FromError should return an existing Error")
	}
	plain := stderrors.New("boom")
	got := FromError(plain, "W120")
	if got.Code != "W120" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestWithLocationReadsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "writdesk.toml")
	content := "[server]\nport = 8080\n\n[app]\nmode = \"editor\"\ntitle = \"desk\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("W104").WithLocation(path, 5, 0)
	if len(err.Context) != 4 {
		t.Fatalf("Context = %q, want lines 3-6", err.Context)
	}
	if err.Context[2] != `mode = "editor"` {
		t.Errorf("Context[2] = %q", err.Context[2])
	}

	out := err.Format()
	for _, want := range []string{
		"ERROR W104: Invalid app mode",
		path + ":5",
		`→    5 │ mode = "editor"`,
		`   4 │ [app]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestContextNearFileStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := New("W101").WithLocation(path, 1, 0)
	if len(err.Context) != 3 || err.Context[0] != "a" {
		t.Fatalf("Context = %q", err.Context)
	}
	if !strings.Contains(err.Format(), "→    1 │ a") {
		t.Errorf("Format():\n%s", err.Format())
	}
}

func TestFormatSections(t *testing.T) {
	err := New("W103").
		WithDetail(`backend.url is "ftp://api"`).
		WithSuggestion("Use an http:// or https:// URL").
		Wrap(stderrors.New("unsupported scheme"))

	out := err.Format()
	for _, want := range []string{
		"ERROR W103: Invalid backend URL",
		`backend.url is "ftp://api"`,
		"Cause: unsupported scheme",
		"Hint: Use an http:// or https:// URL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if got := err.FormatCompact(); got != `W103: Invalid backend URL: backend.url is "ftp://api"` {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W105").WithDetail("session.heartbeat").Wrap(stderrors.New("bad"))
	err.Location = &Location{File: "w.toml", Line: 3}

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON is not JSON: %v", jerr)
	}
	if got["code"] != "W105" || got["category"] != "config" || got["cause"] != "bad" {
		t.Errorf("FormatJSON = %v", got)
	}
	loc, _ := got["location"].(map[string]any)
	if loc["file"] != "w.toml" || loc["line"] != float64(3) {
		t.Errorf("location = %v", loc)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"short", 10, []string{"short"}},
		{"one two three four", 9, []string{"one two", "three", "four"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatal("codes not sorted")
		}
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s incomplete", code)
		}
	}

	Register("W199", ErrorTemplate{Category: CategoryConfig, Message: "Test only"})
	if New("W199").Message != "Test only" {
		t.Error("Register")
	}
}

func TestFprintPlainError(t *testing.T) {
	var b strings.Builder
	Fprint(&b, stderrors.New("plain"))
	if !strings.Contains(b.String(), "ERROR: plain") {
		t.Errorf("Fprint = %q", b.String())
	}
}
