// Package repl implements the "repl" action namespace: the dispatch
// façade an editing endpoint uses to push code into its paired session
// and query the session's readiness.
package repl
