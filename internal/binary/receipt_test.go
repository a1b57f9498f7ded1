package binary

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestReceipt_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := &Receipt{
		Repo:        "cli/cli",
		Tag:         "v2.40.0",
		Name:        "gh",
		Binary:      "gh",
		Asset:       "gh_2.40.0_linux_amd64.tar.gz",
		Target:      "linux-x64",
		InstalledAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := WriteReceipt(dir, want); err != nil {
		t.Fatalf("WriteReceipt() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ReceiptFile+".tmp")); !os.IsNotExist(err) {
		t.Error("temp receipt left behind")
	}

	got, err := ReadReceipt(dir)
	if err != nil {
		t.Fatalf("ReadReceipt() error = %v", err)
	}
	if *got != *want {
		t.Errorf("ReadReceipt() = %+v, want %+v", got, want)
	}
}

func TestReadReceipt_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "repo: [unclosed"},
		{name: "missing repo", content: "binary: gh\n"},
		{name: "missing binary", content: "repo: cli/cli\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ReceiptFile), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadReceipt(dir); err == nil {
				t.Error("ReadReceipt() expected error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadReceipt(t.TempDir()); !os.IsNotExist(err) {
			t.Errorf("ReadReceipt() error = %v, want not exist", err)
		}
	})
}

func TestInstallFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.WriteFile(src, []byte("binary"), 0600); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "out", "nested", "tool")
	if err := installFile(src, dest, true); err != nil {
		t.Fatalf("installFile() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "binary" {
		t.Errorf("content = %q, want %q", data, "binary")
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(dest)
		if info.Mode().Perm() != 0755 {
			t.Errorf("mode = %v, want 0755", info.Mode().Perm())
		}
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestInstallFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "tool")
	if err := installFile(filepath.Join(dir, "missing"), dest, true); err == nil {
		t.Fatal("installFile() expected error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("destination should not exist")
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b/tool", "a.txt", "b/c/README"} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(path), 0755)
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := listFiles(dir)
	want := []string{"a.txt", "b/c/README", "b/tool"}
	if len(got) != len(want) {
		t.Fatalf("listFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("listFiles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
