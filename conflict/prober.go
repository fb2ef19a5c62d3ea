package conflict

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// WorktreeProber scans working-tree files for literal conflict markers
// left behind by earlier merges.
type WorktreeProber struct {
	Root string // repository working tree root
}

// ConflictMarkers implements MarkerProber. Unreadable files report no
// markers; the probe is best-effort.
func (w WorktreeProber) ConflictMarkers(path string) []LineDetail {
	f, err := os.Open(filepath.Join(w.Root, path))
	if err != nil {
		return nil
	}
	defer f.Close()

	var details []LineDetail
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.HasPrefix(text, "<<<<<<< ") ||
			text == "=======" ||
			strings.HasPrefix(text, ">>>>>>> ") {
			details = append(details, LineDetail{Line: line, Content: text})
		}
	}
	return details
}
