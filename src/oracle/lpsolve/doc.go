// Package lpsolve adapts lp_solve (github.com/draffensperger/golp) to the
// oracle interfaces. golp does not expose row duals, so they are obtained by
// solving the LP dual built with oracle.BuildDual. It needs the lp_solve C
// library and is only compiled with the "lpsolve" build tag.
package lpsolve
