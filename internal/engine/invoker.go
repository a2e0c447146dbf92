package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"threadwatch.app/scout/common/llm"
)

// Invoker is the single capability contract for the external AI-backed
// investigator. Both call sites (initial draft, review round) go through
// it, so the control logic is testable with a scripted fake.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

var (
	ErrEmptyOutput = errors.New("investigator returned empty output")
	ErrNotFound    = errors.New("investigator binary not found")
)

// CLIInvoker spawns a non-interactive CLI process per invocation
// (`<path> --print -p <prompt>`). The caller bounds each call with a
// context deadline.
type CLIInvoker struct {
	path string
}

func NewCLIInvoker(path string) *CLIInvoker {
	return &CLIInvoker{path: path}
}

func (c *CLIInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.path, "--print", "-p", prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", fmt.Errorf("investigator timed out: %w", ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("investigator exited with code %d: %s",
				exitErr.ExitCode(), firstLine(stderr.String()))
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, c.path)
		}
		return "", fmt.Errorf("spawning investigator: %w", err)
	}

	out := scrubOutput(stdout.String())
	if out == "" {
		return "", ErrEmptyOutput
	}

	slog.DebugContext(ctx, "cli invocation complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"output_bytes", len(out))

	return out, nil
}

// scrubOutput strips ANSI escape sequences and CLI chrome (box-drawing
// frames, progress lines) so only the answer text remains.
func scrubOutput(stdout string) string {
	if stdout == "" {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(stdout, "\n") {
		cleaned := stripANSI(line)

		trimmed := strings.TrimSpace(cleaned)
		if trimmed == "" {
			lines = append(lines, "")
			continue
		}
		if strings.HasPrefix(trimmed, "╭") || strings.HasPrefix(trimmed, "╰") ||
			strings.HasPrefix(trimmed, "│") || strings.HasPrefix(trimmed, "├") ||
			strings.HasPrefix(trimmed, "└") {
			continue
		}
		if strings.HasPrefix(trimmed, "Running ") && strings.HasSuffix(trimmed, "...") {
			continue
		}

		lines = append(lines, cleaned)
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func stripANSI(s string) string {
	for {
		start := strings.Index(s, "\x1b[")
		if start < 0 {
			return s
		}
		end := start + 2
		for end < len(s) && !isLetter(s[end]) {
			end++
		}
		if end < len(s) {
			end++ // include the terminating letter
		}
		s = s[:start] + s[end:]
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// LLMInvoker satisfies the same contract through a chat-completions
// backend instead of a local CLI.
type LLMInvoker struct {
	client llm.Client
}

type invokerResponse struct {
	Text string `json:"text" jsonschema_description:"The complete response text"`
}

var invokerSchema = llm.GenerateSchema[invokerResponse]()

func NewLLMInvoker(client llm.Client) *LLMInvoker {
	return &LLMInvoker{client: client}
}

func (l *LLMInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	var resp invokerResponse
	_, err := l.client.Chat(ctx, llm.Request{
		SystemPrompt: "You are a data investigation assistant for a team chat workspace. Follow the instructions in the prompt exactly.",
		UserPrompt:   prompt,
		SchemaName:   "invoker_response",
		Schema:       invokerSchema,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("llm invocation: %w", err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", ErrEmptyOutput
	}
	return resp.Text, nil
}
