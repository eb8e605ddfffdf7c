// Package access decides who may trigger which policy transition. The caller
// identity is always passed explicitly as a Principal; nothing is read from
// ambient session state.
package access
