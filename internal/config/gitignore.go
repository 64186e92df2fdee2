package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreHeader = "# backoffice project-local data: config.yaml is tracked, the catalog is not"

// IgnoredProjectFiles lists the patterns a project-local .backoffice/
// directory keeps out of version control: the scan-item store with its lock
// and temp files, and log files.
func IgnoredProjectFiles() []string {
	return []string{
		storeFileName,
		storeFileName + ".lock",
		storeFileName + ".tmp",
		"*.log",
	}
}

// EnsureGitignore makes sure dir/.gitignore lists every IgnoredProjectFiles
// pattern. A missing file is created; an existing one only gets the missing
// patterns appended, so user entries survive. Reports whether the file changed.
func EnsureGitignore(dir string) (bool, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	missing := missingPatterns(existing, IgnoredProjectFiles())
	if len(missing) == 0 {
		return false, nil
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	if !bytes.Contains(existing, []byte(gitignoreHeader)) {
		buf.WriteString(gitignoreHeader + "\n")
	}
	for _, p := range missing {
		buf.WriteString(p + "\n")
	}

	if err = os.MkdirAll(dir, 0o750); err != nil {
		return false, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	//nolint:gosec // .gitignore is meant to be world-readable.
	if err = os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// missingPatterns returns the entries of want that are not a line of content.
func missingPatterns(content []byte, want []string) []string {
	have := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		have[strings.TrimSpace(sc.Text())] = true
	}

	var missing []string
	for _, p := range want {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
