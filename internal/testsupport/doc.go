// Package testsupport holds builders shared by package tests: temp-dir configs,
// opened record stores, and document fixtures.
package testsupport
