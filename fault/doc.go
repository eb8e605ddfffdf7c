// Package fault defines the typed failures returned by the guarantee core.
//
// Every guard violation is recovered at the orchestrator boundary and
// returned as a *Error carrying a Kind (how the caller should react) and a
// Code (what exactly failed). Callers match with errors.Is against the
// exported sentinels or classify with KindOf.
package fault
