package render

import (
	"path/filepath"
	"strings"
)

// BuildRenderArgs builds the headless blender invocation for one scene:
// render every frame of the animation into outputDir using the given
// image format, with the frame number appended to the "frame_" prefix.
func BuildRenderArgs(scenePath, outputDir, format string) []string {
	return []string{
		"-b", scenePath,
		"-o", filepath.Join(outputDir, "frame_"),
		"-F", format,
		"-x", "1",
		"-a",
	}
}

// OutputSubdirFor returns the per-scene output directory: a subfolder of
// outputDir named after the scene file without its extension.
func OutputSubdirFor(outputDir, scenePath string) string {
	base := filepath.Base(scenePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		name = "render"
	}
	return filepath.Join(outputDir, name)
}
