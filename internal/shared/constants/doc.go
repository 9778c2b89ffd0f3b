// Package constants centralizes timeouts and defaults shared across the evaluator.
//
// Probe deadlines, candidate ports and upstream endpoints live here so that
// cmd/ can expose them as config defaults and internal/ packages can fall back
// to them without introducing import cycles.
package constants
