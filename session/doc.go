// Package session houses concrete implementations of core.SessionStore. The
// interface itself (and the Session struct) live in the core package to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages from depending on concrete storage.
//
// The in-memory store below is suitable for tests and single-process
// deployments. The redis sub-package provides a durable store for
// multi-instance setups; additional backends can be added as sub-packages
// without changing any calling code.
package session
