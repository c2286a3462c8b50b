// Package memory provides an in-process implementation of the store
// interfaces. It is the default backend and the one used by the HTTP API
// tests: IDs are assigned sequentially starting at 1 and all state lives in
// maps guarded by a single mutex.
package memory
