// Package highs adapts the HiGHS solver (github.com/lanl/highs) to the
// oracle interfaces. It needs the HiGHS C library and is only compiled with
// the "highs" build tag.
package highs
