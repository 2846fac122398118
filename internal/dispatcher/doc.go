// Package dispatcher routes actions to handlers and coordinates
// execution. Actions are named "namespace.operation"; namespace
// handlers own a whole prefix, exact-name handlers override them.
package dispatcher
