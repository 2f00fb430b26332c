// Package contextmgr owns the session lifecycle and all conversational
// state: message history, accumulated entities and preferences, and the
// two-tier memory with its consolidation pipeline (pattern detection,
// preference extraction, periodic summarization, knowledge capture).
//
// All mutations to one session are serialized through a per-session mutex so
// concurrent callers cannot lose appended messages or double-trim history.
// Long-term memory processing is strictly best effort: its failures are
// logged and swallowed, never blocking the context update from committing.
package contextmgr
