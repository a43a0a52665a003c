// Package pty manages the lifecycle of agent processes attached to
// pseudo-terminals: spawning, input, resizing, termination, and batched
// output streaming.
//
// Each live session owns one child process, one pty master handle, and one
// background reader goroutine that turns the raw byte stream into
// latency-bounded base64 messages pushed to a caller-supplied sink. The
// reader also produces the session's single terminal diagnostic when the
// process exits.
package pty
