package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeatlas/codeatlas/pkg/pipeline"
)

// formatExts maps output formats to file extensions.
var formatExts = map[string]string{
	pipeline.FormatJSON: ".json",
	pipeline.FormatSVG:  ".svg",
	pipeline.FormatDOT:  ".dot",
	pipeline.FormatPNG:  ".png",
}

// basePath derives the base output path from the output flag and a
// fallback stem. A known format extension on the output is stripped so
// "-o out.svg -f svg,json" writes out.svg and out.json.
func basePath(output, stem string) string {
	if output == "" {
		return stem
	}
	ext := filepath.Ext(output)
	for _, known := range formatExts {
		if ext == known {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// writeArtifacts writes one file per rendered format and prints a summary.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string, nodeCount int, cacheHit bool) error {
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + formatExts[format]
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(nodeCount, cacheHit)
	return nil
}
