package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes".
	Accepted bool
	// Cancelled is true if reading input failed.
	Cancelled bool
}

// Confirm writes question followed by " [y/N] " and reads one line from reader.
// Empty input and EOF decline.
func Confirm(writer io.Writer, reader io.Reader, question string) PromptResult {
	_, _ = fmt.Fprintf(writer, "%s [y/N] ", question)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		_, _ = fmt.Fprintln(writer)
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		return PromptResult{}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}
