// Copyright (c) 2026 QEFData Team
// QEFData - data distribution toolkit for the qef project
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"testing"
)

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	av := GetAvailableLocales()
	wantKeys := []string{"en", "de"}
	for _, k := range wantKeys {
		if _, ok := av[k]; !ok {
			t.Fatalf("expected available locale %q to be present", k)
		}
	}

	if name := av["de"]; name != "Deutsch" {
		t.Fatalf("unexpected display name for de: %v", name)
	}
}

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")

	if got := T("all"); got != "All" {
		t.Fatalf("expected 'All', got %q", got)
	}

	// fmt-style formatting via trailing args
	got := T("dashboard.datasets_fetched", 7)
	if got != "Datasets fetched locally: 7" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	// switch language to German
	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("all"); got != "Alle" {
		t.Fatalf("expected German 'Alle', got %q", got)
	}
}

func TestT_UnknownIDFallsBack(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected message ID fallback, got %q", got)
	}
}
