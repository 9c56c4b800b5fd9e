package ocr

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"testing"
)

// stubRunner records the invocation and returns canned output.
type stubRunner struct {
	name     string
	args     []string
	fileSeen bool
	stdout   string
	stderr   string
	err      error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	if len(args) > 0 {
		_, err := os.Stat(args[0])
		s.fileSeen = err == nil
	}
	return []byte(s.stdout), []byte(s.stderr), s.err
}

func TestCLIEngine_Args(t *testing.T) {
	runner := &stubRunner{stdout: "Ram Kumar\n"}
	e := NewCLIEngine(Options{TessdataDir: "/opt/tessdata"}, runner)

	text, err := e.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)), Whitelist)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "Ram Kumar\n" {
		t.Errorf("text: got %q", text)
	}
	if runner.name != "tesseract" {
		t.Errorf("binary: got %q, want tesseract", runner.name)
	}
	if !runner.fileSeen {
		t.Error("temp image should exist while tesseract runs")
	}

	joined := strings.Join(runner.args[1:], " ")
	for _, want := range []string{"stdout", "-l eng", "--psm 6", "--tessdata-dir /opt/tessdata", "tessedit_char_whitelist=" + Whitelist} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	if _, err := os.Stat(runner.args[0]); !os.IsNotExist(err) {
		t.Errorf("temp image %s should be removed after recognition", runner.args[0])
	}
}

func TestCLIEngine_Error(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 1"), stderr: "Error opening data file\nmore"}
	e := NewCLIEngine(Options{}, runner)

	_, err := e.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)), Whitelist)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Error opening data file") {
		t.Errorf("error should carry stderr first line, got %v", err)
	}
	if strings.Contains(err.Error(), "more") {
		t.Errorf("error should not carry later stderr lines, got %v", err)
	}
}

func TestCLIEngine_StubIsAvailable(t *testing.T) {
	e := NewCLIEngine(Options{}, &stubRunner{})
	if !e.Available() {
		t.Error("engine with injected runner should report available")
	}
	if e.Name() != "cli" {
		t.Errorf("Name: got %q, want cli", e.Name())
	}
}

func TestSaveImageToTemp(t *testing.T) {
	path, err := SaveImageToTemp(image.NewGray(image.Rect(0, 0, 16, 16)), "fra-test")
	if err != nil {
		t.Fatalf("SaveImageToTemp failed: %v", err)
	}
	defer os.Remove(path)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("temp file is empty")
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("temp file %s should have .png suffix", path)
	}
}
