// Package core defines the shared types used across finsight: database
// adapter contracts, the state store contract, and run bookkeeping.
//
// Keeping these in one leaf package lets the adapter, pipeline, state,
// and UI packages agree on contracts without importing each other.
package core
