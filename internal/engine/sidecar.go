package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const stderrLimit = 4096

// Sidecar runs the engine executable once per operation.
type Sidecar struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewSidecar(path string, timeout time.Duration, logger *slog.Logger) *Sidecar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sidecar{path: path, timeout: timeout, logger: logger.With("component", "engine")}
}

func (s *Sidecar) command(ctx context.Context, apiKey string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.path, args...)
	cmd.Env = append(os.Environ(), "GEMINI_API_KEY="+apiKey)
	return cmd
}

func (s *Sidecar) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// AnalyzePDF runs `engine <pdf>` and forwards each stdout line.
func (s *Sidecar) AnalyzePDF(ctx context.Context, apiKey, pdfPath string, emit func(line string)) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cmd := s.command(ctx, apiKey, pdfPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stdout: %w", err)
	}
	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	s.logger.Info("Starting PDF analysis", "pdf", pdfPath)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	// Lines carry inline images and can be far larger than bufio.Scanner's limit.
	reader := bufio.NewReader(stdout)
	for {
		line, readErr := reader.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); strings.TrimSpace(line) != "" {
			emit(line)
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				s.logger.Warn("Engine stdout read failed", "error", readErr)
			}
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		s.logger.Error("Engine exited with error", "error", err, "stderr", stderr.String())
		return fmt.Errorf("%w: %v: %s", ErrEngineFailed, err, stderr.String())
	}
	if stderr.Len() > 0 {
		s.logger.Debug("Engine stderr", "stderr", stderr.String())
	}
	s.logger.Info("PDF analysis finished", "pdf", pdfPath)
	return nil
}

// AnalyzeTemplate runs `engine analyze-template <pdf>`.
func (s *Sidecar) AnalyzeTemplate(ctx context.Context, apiKey, pdfPath string) (string, error) {
	return s.run(ctx, apiKey, "analyze-template", pdfPath)
}

// ExportPDF runs `engine export <out> --images ... [--template t] [--margins m]`.
func (s *Sidecar) ExportPDF(ctx context.Context, apiKey string, req ExportRequest) (string, error) {
	return s.run(ctx, apiKey, exportArgs(req)...)
}

// Solve runs `engine solve --questions <json>`.
func (s *Sidecar) Solve(ctx context.Context, apiKey string, questions []SolverQuestion) (string, error) {
	payload, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("failed to encode solver questions: %w", err)
	}
	return s.run(ctx, apiKey, "solve", "--questions", string(payload))
}

func exportArgs(req ExportRequest) []string {
	args := []string{"export", req.OutputPath, "--images"}
	args = append(args, req.ImagePaths...)
	if req.TemplatePath != nil && *req.TemplatePath != "" {
		args = append(args, "--template", *req.TemplatePath)
	}
	if req.Margins != nil && *req.Margins != "" {
		args = append(args, "--margins", *req.Margins)
	}
	return args
}

func (s *Sidecar) run(ctx context.Context, apiKey string, args ...string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrLimit}
	cmd := s.command(ctx, apiKey, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		s.logger.Error("Engine command failed", "command", args[0], "error", err, "stderr", stderr.String())
		return "", fmt.Errorf("%w: %s: %v: %s", ErrEngineFailed, args[0], err, stderr.String())
	}
	s.logger.Info("Engine command finished", "command", args[0], "duration_ms", time.Since(start).Milliseconds())

	return strings.TrimSpace(stdout.String()), nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return strings.TrimSpace(string(t.buf)) }
func (t *tailBuffer) Len() int       { return len(t.buf) }
