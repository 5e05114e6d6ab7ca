// Package models provides the data structures exchanged with the agent
// sandbox provider: sandbox and snapshot handles, workspace file listings,
// log bundles, and the streamed event types.
package models

// SandboxHandle identifies a live remote execution environment. It is owned
// by the Session that created or resumed it and becomes invalid after a
// pause, terminate, or error.
type SandboxHandle struct {
	SandboxID string `json:"sandbox_id"`
	TunnelURL string `json:"tunnel_url"`
}

// SnapshotHandle identifies a persisted capture of a paused sandbox. A
// snapshot is consumed exactly once by a resume; resuming yields a new
// SandboxHandle bound to the same logical session.
//
// SnapshotID may be empty: the provider reports a pause that could not
// capture state as {"snapshot_id": null}, which is a successful pause with
// nothing to resume from.
type SnapshotHandle struct {
	SnapshotID string `json:"snapshot_id"`
}

// FileInfo describes one entry of a workspace directory listing.
type FileInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"is_directory"`
	// Size is nil for directories.
	Size *int64 `json:"size"`
}

// LogBundle carries the four log channels the provider collects from a
// sandbox: the agent server log, a process table snapshot, the local health
// probe output, and the (secret-filtered) environment.
type LogBundle struct {
	Agent       string `json:"opencode"`
	Processes   string `json:"processes"`
	HealthCheck string `json:"health_check"`
	Environment string `json:"environment"`
}
