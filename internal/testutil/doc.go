// Package testutil provides fluent builders for constructing sessions and
// messages in tests.
package testutil
