// Package preflight provides readiness checks for the tools and paths a
// generation run depends on.
//
// These checks run in two contexts:
//   - The CLI "vibemix preflight" command renders every result as a table.
//   - "vibemix generate" runs RunAll first and refuses to stage anything
//     when a required check fails.
//
// Hardware encoder checks only run when the configured device needs them.
package preflight
