// Package analytics turns the filtered pesticide-use rows into chart-ready
// views. Every function here is pure: inputs are never modified and results
// do not alias them.
//
// Values that cannot be computed (a percentage change from zero, a
// correlation over constant data) are reported as nil pointers rather than
// NaN or Inf.
package analytics
