// Package genetics defines the core data model for the simulation:
// genotypes, alleles, environmental snapshots, trait-expression results,
// and the derived measures the caches match on (genetic distance and
// canonical pattern signatures).
//
// The package is pure data and math: no I/O, no goroutines, no clocks
// beyond timestamps stamped by callers.
package genetics
