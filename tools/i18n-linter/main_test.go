package main

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFlattenYAMLAndLoadKeys(t *testing.T) {
	// Create nested map and flatten
	m := map[string]interface{}{
		"catalog": map[string]interface{}{
			"registered": "value",
			"arr":        []interface{}{"one", "two"},
		},
		"other": "v",
	}
	keys := make(map[string]struct{})
	flattenYAML("", m, keys)
	if _, ok := keys["catalog.registered"]; !ok {
		t.Fatalf("expected catalog.registered in keys")
	}
	if _, ok := keys["catalog.arr[0]"]; !ok {
		t.Fatalf("expected catalog.arr[0] in keys")
	}

	// Write YAML to temp file and load via loadKeysFromLocale
	dir := t.TempDir()
	p := filepath.Join(dir, "test.yaml")
	data, _ := yaml.Marshal(m)
	if err := os.WriteFile(p, data, 0600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	got, err := loadKeysFromLocale(p)
	if err != nil {
		t.Fatalf("loadKeysFromLocale failed: %v", err)
	}
	if _, ok := got["catalog.registered"]; !ok {
		t.Fatalf("expected loaded key catalog.registered")
	}
}

func TestFindUsedKeysAndUntranslatedStrings(t *testing.T) {
	dir := t.TempDir()
	// Create a Go file that contains i18n.T and some string literals
	src := `package foo
func f(){
	_ = i18n.T("my.key")
	foo("Visible message")
	bar("ok")
}`
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(dir, "sub", "a.go")
	if err := os.WriteFile(p, []byte(src), 0644); err != nil {
		t.Fatalf("write go: %v", err)
	}

	// Files under underscore-prefixed directories are outside the build and
	// must not contribute keys or findings.
	if err := os.MkdirAll(filepath.Join(dir, "_attic"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	hidden := `package attic
func g(){
	_ = i18n.T("attic.key")
	foo("Attic only message")
}`
	if err := os.WriteFile(filepath.Join(dir, "_attic", "b.go"), []byte(hidden), 0644); err != nil {
		t.Fatalf("write go: %v", err)
	}

	used, err := findUsedKeys(dir)
	if err != nil {
		t.Fatalf("findUsedKeys failed: %v", err)
	}
	if _, ok := used["my.key"]; !ok {
		t.Fatalf("expected my.key found in used keys")
	}
	if _, ok := used["attic.key"]; ok {
		t.Fatalf("did not expect keys from _attic to be scanned")
	}

	// Prepare primary keys map (simulate loaded keys)
	all := map[string]struct{}{"my.key": {}}

	untranslated, err := findUntranslatedStrings(dir, used, all)
	if err != nil {
		t.Fatalf("findUntranslatedStrings failed: %v", err)
	}
	// Should find "Visible message"
	if _, ok := untranslated["Visible message"]; !ok {
		t.Fatalf("expected Visible message to be flagged as untranslated")
	}
	// Short string should be ignored
	if _, ok := untranslated["Short"]; ok {
		t.Fatalf("did not expect Short to be flagged")
	}
	if _, ok := untranslated["Attic only message"]; ok {
		t.Fatalf("did not expect strings from _attic to be flagged")
	}
}
