// Package disk enumerates mounted storage volumes from the system mount
// table with statfs usage figures. Enumeration only; organization policy
// lives elsewhere.
package disk
