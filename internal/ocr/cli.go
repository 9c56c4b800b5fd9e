package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Runner lets tests stub the tesseract binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// CLIEngine shells out to the tesseract binary. It is the fallback for builds
// without cgo and for hosts where only the command-line tool is installed.
type CLIEngine struct {
	opts   Options
	runner Runner
}

// NewCLIEngine creates a tesseract CLI engine. A nil runner executes real processes.
func NewCLIEngine(opts Options, runner Runner) *CLIEngine {
	if runner == nil {
		runner = execRunner{}
	}
	return &CLIEngine{opts: opts.withDefaults(), runner: runner}
}

func (e *CLIEngine) Name() string { return "cli" }

// Available reports whether the binary can be found. The result of the start-up
// probe, not this check, decides availability for the process lifetime.
func (e *CLIEngine) Available() bool {
	if _, ok := e.runner.(execRunner); !ok {
		return true
	}
	_, err := exec.LookPath(e.opts.TesseractPath)
	return err == nil
}

// Recognize writes img to a temporary PNG and runs
// tesseract <file> stdout -l <lang> --psm <n> [-c tessedit_char_whitelist=...].
func (e *CLIEngine) Recognize(ctx context.Context, img image.Image, whitelist string) (string, error) {
	path, err := SaveImageToTemp(img, "fra-ocr")
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	out, errb, err := e.runner.Run(ctx, e.opts.TesseractPath, e.args(path, whitelist)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("tesseract: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, firstLine(msg))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func (e *CLIEngine) args(path, whitelist string) []string {
	args := []string{path, "stdout", "-l", e.opts.Language, "--psm", strconv.Itoa(e.opts.PageSegMode)}
	if e.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.opts.TessdataDir)
	}
	if whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+whitelist)
	}
	return args
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
