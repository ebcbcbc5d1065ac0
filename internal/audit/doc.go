// Package audit provides the internal audit event model, pluggable sinks,
// and the buffered asynchronous dispatcher used by the engine.
package audit
