// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type (
	// Tools runs host extraction utilities.
	Tools interface {
		// Run executes name with args and returns the combined output. A
		// missing utility yields an error wrapping ErrToolNotFound.
		Run(ctx context.Context, name string, args ...string) ([]byte, error)
	}

	// ExecTools runs utilities as subprocesses.
	ExecTools struct{}

	// ToolCommand is one fallback extraction invocation.
	ToolCommand struct {
		Name string
		Args []string
	}
)

// Run implements Tools.
func (ExecTools) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err = cmd.Run()
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return out.Bytes(), err
}

// FallbackCommands lists the utilities tried, in order, to extract archive
// into target on goos.
func FallbackCommands(goos, archive, target string) []ToolCommand {
	tar := ToolCommand{Name: "tar", Args: []string{"-xf", archive, "-C", target}}
	if goos == "windows" {
		script := fmt.Sprintf("Expand-Archive -LiteralPath %s -DestinationPath %s -Force",
			psQuote(archive), psQuote(target))
		return []ToolCommand{
			{Name: "powershell", Args: []string{"-NoProfile", "-NonInteractive", "-Command", script}},
			tar,
		}
	}
	return []ToolCommand{
		{Name: "unzip", Args: []string{"-o", archive, "-d", target}},
		tar,
	}
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
