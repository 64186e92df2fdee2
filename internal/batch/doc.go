// Package batch runs a unit of work over a list of items, one item at a time.
//
// A Runner drives a single run at a time through the states Idle, Running and
// Completed. Key properties:
//   - Items are processed in input order with at most one operation in flight
//   - A failing item is counted and the run continues (fail-open)
//   - Cancel is cooperative: the in-flight item settles, no further item starts
//   - Every transition publishes an immutable Progress snapshot to subscribers
//
// Bulk mutations in the CLI (moving or deleting scan items) are driven through a
// Runner so that rate-limited backends see strictly serial requests.
package batch
