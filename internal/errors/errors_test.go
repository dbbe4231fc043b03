package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "E102",
			wantMsg: "Invalid configuration value",
			wantCat: CategoryConfig,
		},
		{
			name:    "storage error",
			code:    "E201",
			wantMsg: "Subscriber database unavailable",
			wantCat: CategoryStorage,
		},
		{
			name:    "live error",
			code:    "E302",
			wantMsg: "Live sessions did not close in time",
			wantCat: CategoryLive,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		tt := tt
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

func TestNewf(t *testing.T) {
	err := Newf(CategoryServer, "port %d in use", 8080)
	if err.Message != "port 8080 in use" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryServer {
		t.Errorf("Category = %q, want %q", err.Category, CategoryServer)
	}
}

func TestAppError_Error(t *testing.T) {
	if got := New("E401").Error(); got != "E401: Cannot listen on address" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := New("E201").Wrap(fmt.Errorf("disk full"))
	if got := wrapped.Error(); got != "E201: Subscriber database unavailable: disk full" {
		t.Errorf("Error() = %q", got)
	}

	plain := &AppError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("serve: %w", New("E202").Wrap(cause))

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !stderrors.Is(err, New("E202")) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New("E201")) {
		t.Error("errors.Is should not match a different code")
	}
	if Code(err) != "E202" {
		t.Errorf("Code() = %q, want E202", Code(err))
	}
	if Code(cause) != "" {
		t.Errorf("Code() of plain error = %q, want empty", Code(cause))
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E103")
	if got := FromError(fmt.Errorf("load: %w", orig), "E101"); got != orig {
		t.Error("FromError should return the AppError already in the chain")
	}

	plain := stderrors.New("bad yaml")
	got := FromError(plain, "E101")
	if got.Code != "E101" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestBuilders(t *testing.T) {
	err := New("E102").
		WithDetailf("toast.policy must be %q or %q, got %q", "replace", "legacy", "keep").
		WithSuggestion("Use replace.")

	if err.Detail != `toast.policy must be "replace" or "legacy", got "keep"` {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "Use replace." {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}

	err.WithDetail("plain")
	if err.Detail != "plain" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").
		WithDetail("flash.stagger must be positive").
		Wrap(stderrors.New("got -1s"))
	out := err.Format()

	for _, want := range []string{
		"ERROR E102: Invalid configuration value",
		"  flash.stagger must be positive",
		"  Cause: got -1s",
		"  Hint: Check the value against `storefront config`.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormat_Colors(t *testing.T) {
	EnableColors()
	if !strings.Contains(New("E401").Format(), colorRed) {
		t.Error("Format() should use colors when enabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E103").WithDetail("store.archive=s3")
	if got := err.FormatCompact(); got != "E103: Missing S3 bucket (store.archive=s3)" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E202").Wrap(stderrors.New("403 Forbidden"))

	var got map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if got["code"] != "E202" || got["category"] != "storage" || got["cause"] != "403 Forbidden" {
		t.Errorf("FormatJSON() = %v", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("wrapped: %w", New("E401")))
	if !strings.Contains(buf.String(), "ERROR E401: Cannot listen on address") {
		t.Errorf("Fprint(AppError) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(error) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	if wrapText("", 10) != nil {
		t.Error("empty text should wrap to nil")
	}
	lines := wrapText("one two three four five", 9)
	want := []string{"one two", "three", "four five"}
	if len(lines) != len(want) {
		t.Fatalf("wrapText = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("registry is empty")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %q >= %q", codes[i-1], codes[i])
		}
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("template %s incomplete: %+v", code, tmpl)
		}
	}

	Register("E999", ErrorTemplate{Category: CategoryServer, Message: "Test"})
	defer delete(registry, "E999")
	if New("E999").Message != "Test" {
		t.Error("Register did not add the template")
	}
}
