// Package core holds the domain contracts shared by every subsystem of the
// conversational orchestration layer: sessions with their context and
// layered memory, the agent catalog types, reasoning results, the error
// taxonomy, and the capability interfaces (session store, record store,
// embedding search, observer). Concrete implementations live in their own
// packages (session, store, memory, agentmgr, contextmgr, reasoning) and are
// selected at wiring time; keeping the contracts here prevents dependency
// cycles between them.
package core
