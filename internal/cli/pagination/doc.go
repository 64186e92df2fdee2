// Package pagination provides page/limit handling and sorting for CLI list commands.
//
// Two mutually exclusive modes are supported:
//   - Offset-based: --limit and --offset
//   - Page-based: --page and --page-size
//
// Params validates the flags, Apply slices any result set, and Meta describes
// the slice that was returned for JSON output.
package pagination
