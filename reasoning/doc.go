// Package reasoning implements the reasoning engine. A request is analyzed
// for intents, entities, complexity and domain, then either answered with a
// single agent generation or decomposed into a linear chain of subtasks that
// are executed sequentially and synthesized. Finished results are cached per
// session and message.
package reasoning
