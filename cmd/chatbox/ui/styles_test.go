package ui

import (
	"strings"
	"testing"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme for white background")
	}

	t.Setenv("COLORFGBG", "")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme when COLORFGBG is unset")
	}
}

func TestThemeFor(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	if !ThemeFor("dark").IsDark {
		t.Error("dark should be dark")
	}
	if ThemeFor("light").IsDark {
		t.Error("light should be light")
	}
	if ThemeFor("auto").IsDark {
		t.Error("auto should fall back to detection")
	}
}

func TestStatusGlyph(t *testing.T) {
	s := NewStyles(LightTheme())
	for _, status := range []string{"sending", "sent", "delivered", "read", "failed"} {
		if s.StatusGlyph(status) == "" {
			t.Errorf("missing glyph for %s", status)
		}
	}
	if s.StatusGlyph("") != "" {
		t.Error("messages without status have no glyph")
	}
	if !strings.Contains(s.ConnectionBadge("connected"), "online") {
		t.Error("connected badge should read online")
	}
}

func TestKeyMapHelp(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 || len(km.FullHelp()) == 0 {
		t.Fatal("help must list bindings")
	}
	if km.Send.Help().Key != "enter" {
		t.Errorf("unexpected send key %q", km.Send.Help().Key)
	}
}
