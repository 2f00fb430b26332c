// Package agentmgr implements the agent registry: a fixed catalog of
// role-specialized personas, keyword-driven agent selection, prompt assembly
// and generation with hard failure containment, and per-agent performance
// bookkeeping.
//
// Generation never fails from the caller's point of view. Any model error is
// converted into a well-formed degraded response and recorded as a failure
// in the agent's counters; the conversation keeps moving.
package agentmgr
