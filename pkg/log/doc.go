// Package log is a thin wrapper around the standard library logger used by
// every postsearch package.
//
// Loggers are named after the component that owns them and memoized:
//
//	l := log.ForService("search")
//	l.Infof("cache filled")
//	l.With("q", query).With("cursor", cursor).Warnf("cache get failed: %v", err)
//
// Every line carries a `[name>]` prefix and, when fields were attached with
// With, a trailing `key=value` list with quoted string values:
//
//	2026/10/16 10:00:00.000000 WARN [search>] cache get failed: timeout q="rust" cursor=""
//
// Debug output is off by default. It can be enabled for every logger with
// SetGlobalDebug or for a single component with EnableDebugFor. SetOutput
// redirects all loggers, which is how tests capture log lines.
//
// All exported functions are safe for concurrent use.
package log
