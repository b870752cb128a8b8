// Package stack drives the Mythic service stack through its CLI.
//
// The Controller owns the policy: build before start, verify the compose
// project actually runs, treat stopping a stopped stack as success, and keep
// going through a plugin list when one plugin fails. A Backend does the
// work. MythicBackend shells out to make, ./mythic-cli and the container
// engine; FakeBackend keeps state in memory for tests.
//
// Backend output is returned verbatim so build and start failures can show
// the operator exactly what the tooling printed.
package stack
