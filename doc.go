// Package sweep connects a Prolog engine to host scripting languages.
//
// The engine is in package 'core', the value conversions and query
// protocol that hosts call are in 'bridge', and the host
// interpreters are in 'interpreters'.  The command-line tool is
// cmd/sweep.
package sweep
