// Lyon is a command line client for AI-assisted pull request review.
//
// It fetches a pull request or local diff, hands it to an AI command line
// tool (claude, codex, or a configured custom command), normalizes whatever
// the tool answers into a structured review, and renders the findings
// anchored to diff lines. Reviews are kept in a local history.
//
// Usage:
//
//	lyon review pr 42 --post              # review a pull request and post the findings
//	lyon review staged                    # review staged changes
//	lyon review range origin/main..HEAD   # review a revision range
//	lyon diff pr 42                       # show a PR diff with its review comments
//	lyon history list                     # list stored reviews
//	lyon providers                        # show which AI tools are installed
package main
