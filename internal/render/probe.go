package render

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// frameRangeMarker prefixes the probe script's single line of interest.
const frameRangeMarker = "FRAME_RANGE:"

// frameRangeScript prints the scene's frame span when run inside blender.
const frameRangeScript = `import bpy
scene = bpy.context.scene
print("FRAME_RANGE:%d,%d" % (scene.frame_start, scene.frame_end))
`

// FrameRange asks blender for the scene's frame span by running a
// throwaway python script in background mode. Used only to scale
// progress reporting; callers treat failure as non-fatal.
func FrameRange(ctx context.Context, launcher Launcher, blenderPath, scenePath string) (int, int, error) {
	script, err := os.CreateTemp("", "frame-probe-*.py")
	if err != nil {
		return 0, 0, fmt.Errorf("create probe script: %w", err)
	}
	scriptPath := script.Name()
	defer os.Remove(scriptPath)

	if _, err := script.WriteString(frameRangeScript); err != nil {
		script.Close()
		return 0, 0, fmt.Errorf("write probe script: %w", err)
	}
	if err := script.Close(); err != nil {
		return 0, 0, fmt.Errorf("close probe script: %w", err)
	}

	proc, err := launcher.Start(ctx, blenderPath, []string{"-b", scenePath, "-P", scriptPath})
	if err != nil {
		return 0, 0, &ProcessError{Path: blenderPath, Err: err}
	}

	start, end := 0, 0
	found := false
	for line := range proc.Lines() {
		if s, e, ok := parseFrameRange(line.Text); ok {
			start, end = s, e
			found = true
		}
	}
	if code, err := proc.Wait(); err != nil {
		return 0, 0, &ProcessError{Path: blenderPath, ExitCode: code, Err: err}
	}
	if !found {
		return 0, 0, fmt.Errorf("no %s marker in probe output", frameRangeMarker)
	}
	return start, end, nil
}

// parseFrameRange extracts "FRAME_RANGE:<start>,<end>" from one line.
func parseFrameRange(line string) (int, int, bool) {
	idx := strings.Index(line, frameRangeMarker)
	if idx < 0 {
		return 0, 0, false
	}

	parts := strings.SplitN(strings.TrimSpace(line[idx+len(frameRangeMarker):]), ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// ParseFrameProgress extracts the current frame number from blender's
// per-frame "Fra:<n> ..." render output lines.
func ParseFrameProgress(line string) (int, bool) {
	idx := strings.Index(line, "Fra:")
	if idx < 0 {
		return 0, false
	}

	rest := line[idx+len("Fra:"):]
	if fields := strings.Fields(rest); len(fields) > 0 {
		rest = fields[0]
	}
	frame, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return frame, true
}
