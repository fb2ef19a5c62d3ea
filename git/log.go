package git

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Log record framing. ASCII record/unit separators cannot appear in hashes,
// author identities, or timestamps, and the trailing unit separator after
// the raw message isolates the name-status block from message text.
const (
	recordSep = "\x1e"
	unitSep   = "\x1f"

	logFormat = recordSep + "%H" + unitSep + "%P" + unitSep + "%an" + unitSep +
		"%ae" + unitSep + "%at" + unitSep + "%B" + unitSep
)

// LogEntry is one parsed commit from the divergence log.
type LogEntry struct {
	Hash        string    // Full commit hash
	Parents     []string  // Parent hashes, first parent first
	Author      string    // Author name
	AuthorEmail string    // Author email
	Timestamp   time.Time // Author timestamp
	Message     string    // Full commit message
	Files       []string  // Modified file paths
}

// CommitsBetween enumerates commits reachable from source but not from
// target (two-dot exclusion), in topological log order, each with its
// modified-file list. Malformed records are skipped and reported as
// warnings rather than failing the enumeration.
func (g *Context) CommitsBetween(target, source string) ([]LogEntry, []string, error) {
	targetRef, _, err := g.ResolveBranch(target)
	if err != nil {
		return nil, nil, err
	}
	sourceRef, _, err := g.ResolveBranch(source)
	if err != nil {
		return nil, nil, err
	}

	out, err := g.runGit(
		"log",
		"--topo-order",
		"--name-status",
		"--pretty=format:"+logFormat,
		targetRef+".."+sourceRef,
	)
	if err != nil {
		return nil, nil, &RepoError{
			Op:     "log range",
			Path:   g.repoPath,
			Branch: target + ".." + source,
			Output: err.Error(),
			Err:    err,
		}
	}

	return parseLog(out)
}

// parseLog parses the framed log output into entries plus warnings for
// records that could not be parsed.
func parseLog(out string) ([]LogEntry, []string, error) {
	var entries []LogEntry
	var warnings []string

	for _, record := range strings.Split(out, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}

		entry, err := parseRecord(record)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped commit record: %v", err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, warnings, nil
}

func parseRecord(record string) (LogEntry, error) {
	fields := strings.SplitN(record, unitSep, 7)
	if len(fields) != 7 {
		return LogEntry{}, fmt.Errorf("unparseable commit line (%d fields)", len(fields))
	}

	hash := strings.TrimSpace(fields[0])
	if !isCommitHash(hash) {
		return LogEntry{}, fmt.Errorf("invalid hash %q", hash)
	}

	unix, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return LogEntry{}, fmt.Errorf("bad date for %s: %w", hash[:8], err)
	}

	entry := LogEntry{
		Hash:        hash,
		Parents:     splitHashes(fields[1]),
		Author:      fields[2],
		AuthorEmail: fields[3],
		Timestamp:   time.Unix(unix, 0).UTC(),
		Message:     strings.TrimSpace(fields[5]),
		Files:       parseNameStatus(fields[6]),
	}
	return entry, nil
}

// parseNameStatus extracts file paths from a git name-status block.
// Rename and copy lines carry two paths; the destination is recorded.
func parseNameStatus(block string) []string {
	var files []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		status := parts[0]
		if status == "" || !isStatusLetter(status[0]) {
			continue
		}
		files = append(files, parts[len(parts)-1])
	}
	return files
}

func isStatusLetter(b byte) bool {
	switch b {
	case 'A', 'C', 'D', 'M', 'R', 'T', 'U', 'X', 'B':
		return true
	}
	return false
}

func splitHashes(s string) []string {
	var hashes []string
	for _, h := range strings.Fields(s) {
		if isCommitHash(h) {
			hashes = append(hashes, h)
		}
	}
	return hashes
}

func isCommitHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
