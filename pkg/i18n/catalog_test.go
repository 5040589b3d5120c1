package i18n

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDirAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "en.toml", "hello = \"Hello\"\nbye = \"Bye\"\n")
	writeFile(t, dir, "fr.yaml", "hello: Bonjour\n")
	writeFile(t, dir, "README.md", "ignored")

	c, err := New("en")
	if err != nil {
		t.Fatal(err)
	}
	n, err := c.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if n != 2 {
		t.Errorf("LoadDir() = %d, want 2", n)
	}
	if got := c.Languages(); !reflect.DeepEqual(got, []string{"en", "fr"}) {
		t.Errorf("Languages() = %v", got)
	}

	want := map[string]string{"hello": "Hello", "bye": "Bye"}
	if got := c.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}

	if err := c.SetLanguage("fr"); err != nil {
		t.Fatal(err)
	}
	want = map[string]string{"hello": "Bonjour", "bye": "Bye"}
	if got := c.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("fr Snapshot() = %v, want fallback for bye: %v", got, want)
	}
	if c.Language() != "fr" {
		t.Errorf("Language() = %q", c.Language())
	}
}

func TestLocalizeTemplateData(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddMessages("en", map[string]string{"greet": "Hi {{.Name}}"}); err != nil {
		t.Fatal(err)
	}
	got, err := c.Localize("greet", map[string]any{"Name": "Ada"})
	if err != nil || got != "Hi Ada" {
		t.Errorf("Localize() = %q, %v", got, err)
	}
	if _, err := c.Localize("missing", nil); err == nil {
		t.Error("Localize(missing) should fail")
	}
}

func TestInvalidLanguage(t *testing.T) {
	if _, err := New("not a language!"); err == nil {
		t.Error("New() with invalid language should fail")
	}
	c, _ := New("en")
	if err := c.SetLanguage("??"); err == nil {
		t.Error("SetLanguage() with invalid language should fail")
	}
}

func TestLoadMissingDir(t *testing.T) {
	c, _ := New("en")
	n, err := c.LoadDir(filepath.Join(t.TempDir(), "nope"))
	if n != 0 || err != nil {
		t.Errorf("LoadDir(missing) = %d, %v", n, err)
	}
}
