package locale

import (
	"testing"

	"golang.org/x/text/language"
)

func TestParsePreferencesSortsByQuality(t *testing.T) {
	prefs := ParsePreferences("fr;q=0.5, en-DE;q=0.9, de")
	if len(prefs) != 3 {
		t.Fatalf("unexpected length: %#v", prefs)
	}
	expected := []string{"de", "en-DE", "fr"}
	for i, want := range expected {
		if got := prefs[i].Tag.String(); got != want {
			t.Fatalf("prefs[%d] = %s, want %s", i, got, want)
		}
	}
	if prefs[0].Quality != 1.0 {
		t.Fatalf("default quality = %v, want 1.0", prefs[0].Quality)
	}
}

func TestParsePreferencesKeepsOrderOnTies(t *testing.T) {
	prefs := ParsePreferences("fr;q=0.8,en;q=0.8,de;q=0.8")
	expected := []string{"fr", "en", "de"}
	for i, want := range expected {
		if got := prefs[i].Base(); got != want {
			t.Fatalf("prefs[%d] = %s, want %s", i, got, want)
		}
	}
}

func TestParsePreferencesSkipsInvalidEntries(t *testing.T) {
	prefs := ParsePreferences("*, en;q=abc, ;q=0.3, de;q=0, en-GB;q=2, en;q=NaN, de;q=0x1p-1, en;q=5e-1, de;q=1_0, en;q=0.1234, fr;q=0.1, !!!")
	if len(prefs) != 1 {
		t.Fatalf("unexpected prefs: %#v", prefs)
	}
	if prefs[0].Base() != "fr" {
		t.Fatalf("unexpected entry: %s", prefs[0].Tag)
	}
}

func TestParsePreferencesEmpty(t *testing.T) {
	if prefs := ParsePreferences("   "); len(prefs) != 0 {
		t.Fatalf("expected no preferences, got %#v", prefs)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		override *Override
		header   string
		want     Locale
	}{
		{name: "german browser", header: "de", want: DE},
		{name: "unsupported browser falls back to default", header: "fr", want: DE},
		{name: "region is ignored", header: "en-DE", want: EN},
		{name: "any english variant", header: "en-US,de;q=0.9", want: EN},
		{name: "first supported entry wins", header: "fr, it;q=0.9, en;q=0.8, de;q=0.7", want: EN},
		{name: "quality beats header order", header: "de;q=0.4, en-GB;q=0.6", want: EN},
		{name: "missing header", header: "", want: DE},
		{name: "override beats browser", override: &Override{Locale: EN}, header: "de;q=1", want: EN},
		{name: "override beats unsupported browser", override: &Override{Locale: DE}, header: "en", want: DE},
		{name: "NaN quality does not reorder", header: "de;q=0.1, fr;q=NaN, en;q=0.9", want: EN},
		{name: "three-letter codes are not aliased", header: "eng, de;q=0.5", want: DE},
		{name: "primary subtag is case-insensitive", header: "EN-us", want: EN},
		{name: "invalid override is ignored", override: &Override{Locale: "fr"}, header: "en", want: EN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, persist := Resolve(tt.override, ParsePreferences(tt.header))
			if got != tt.want {
				t.Fatalf("Resolve = %s, want %s", got, tt.want)
			}
			if persist != nil {
				t.Fatalf("Resolve should never ask to persist, got %#v", persist)
			}
		})
	}
}

func TestSelectIsStableAcrossRequests(t *testing.T) {
	headers := []string{"", "de", "fr", "en-DE", "de;q=1, en;q=0.1"}
	for _, l := range Supported() {
		override := Select(l)
		for _, h := range headers {
			got, _ := Resolve(&override, ParsePreferences(h))
			if got != l {
				t.Fatalf("Resolve(Select(%s), %q) = %s", l, h, got)
			}
		}
	}
}

func TestParseLocale(t *testing.T) {
	if l, ok := ParseLocale(" EN "); !ok || l != EN {
		t.Fatalf("ParseLocale(EN) = %s, %v", l, ok)
	}
	if _, ok := ParseLocale("fr"); ok {
		t.Fatal("expected fr to be unsupported")
	}
	if !Default.IsSupported() {
		t.Fatal("default locale must be supported")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		of, in Locale
		want   string
	}{
		{DE, DE, "Deutsch"},
		{EN, DE, "Englisch"},
		{EN, EN, "English"},
		{DE, EN, "German"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.of, tt.in); got != tt.want {
			t.Fatalf("DisplayName(%s, %s) = %s, want %s", tt.of, tt.in, got, tt.want)
		}
	}
}

func TestMessageFallsBackToKey(t *testing.T) {
	if err := LoadCatalog(); err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if got := Message(DE, "page.login"); got != "Anmelden" {
		t.Fatalf("Message(de, page.login) = %s", got)
	}
	if got := Message(EN, "page.login"); got != "Login" {
		t.Fatalf("Message(en, page.login) = %s", got)
	}
	if got := Message(EN, "no.such.key"); got != "no.such.key" {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if got := Messagef(EN, "nav.loggedInAs", "emu"); got != "Logged in as emu" {
		t.Fatalf("unexpected Messagef result: %s", got)
	}
}

func TestCatalogPrinters(t *testing.T) {
	if err := LoadCatalog(); err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if DE.Tag() != language.German || EN.Tag() != language.English {
		t.Fatalf("unexpected tags: %s %s", DE.Tag(), EN.Tag())
	}
	if got := Messagef(DE, "nav.loggedInAs", "emu"); got != "Angemeldet als emu" {
		t.Fatalf("unexpected german Messagef result: %s", got)
	}
	if got := Message(Locale("fr"), "page.login"); got != "Anmelden" {
		t.Fatalf("unsupported locale should use the default catalog, got %s", got)
	}
}
