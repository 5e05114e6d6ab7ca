package agentbox

import (
	"context"
	"encoding/json"
	"net/http"

	"agentbox-sdk/models"
)

// Defaults for the workspace inspection operations.
const (
	DefaultWorkspacePath = "/workspace"
	DefaultLogTail       = 100
)

// CreateOptions configures sandbox creation. Repo and GitToken are optional;
// when unset they are serialized as explicit JSON nulls so the provider can
// tell "no repo requested" from a missing field.
type CreateOptions struct {
	AnthropicAPIKey string
	Repo            *string
	GitToken        *string
}

// CreateSandbox provisions a new sandbox, optionally cloning a repository
// into its workspace, and returns the handle of the running environment.
func (c *Client) CreateSandbox(ctx context.Context, opts CreateOptions) (*models.SandboxHandle, error) {
	payload := struct {
		Repo            *string `json:"repo"`
		Pat             *string `json:"pat"`
		AnthropicAPIKey string  `json:"anthropic_api_key"`
	}{
		Repo:            opts.Repo,
		Pat:             opts.GitToken,
		AnthropicAPIKey: opts.AnthropicAPIKey,
	}

	var handle models.SandboxHandle
	if err := c.post(ctx, opCreate, payload, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// PauseSandbox captures a filesystem snapshot of the sandbox and tears the
// environment down. The returned handle's SnapshotID may be empty: the
// provider reports a pause that could not capture state as a null snapshot
// id, which is not an error.
func (c *Client) PauseSandbox(ctx context.Context, sandboxID string) (*models.SnapshotHandle, error) {
	payload := struct {
		SandboxID string `json:"sandbox_id"`
	}{SandboxID: sandboxID}

	var resp struct {
		SnapshotID *string `json:"snapshot_id"`
	}
	if err := c.post(ctx, opPause, payload, &resp); err != nil {
		return nil, err
	}

	handle := &models.SnapshotHandle{}
	if resp.SnapshotID != nil {
		handle.SnapshotID = *resp.SnapshotID
	}
	return handle, nil
}

// ResumeSandbox boots a fresh sandbox from a snapshot. The snapshot is
// consumed; the returned handle identifies a new environment.
func (c *Client) ResumeSandbox(ctx context.Context, snapshotID, anthropicAPIKey string) (*models.SandboxHandle, error) {
	payload := struct {
		SnapshotID      string `json:"snapshot_id"`
		AnthropicAPIKey string `json:"anthropic_api_key"`
	}{SnapshotID: snapshotID, AnthropicAPIKey: anthropicAPIKey}

	var handle models.SandboxHandle
	if err := c.post(ctx, opResume, payload, &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

// TerminateSandbox tears a sandbox down without producing a snapshot.
func (c *Client) TerminateSandbox(ctx context.Context, sandboxID string) (bool, error) {
	payload := struct {
		SandboxID string `json:"sandbox_id"`
	}{SandboxID: sandboxID}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.post(ctx, opTerminate, payload, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// ListFiles lists one level of a workspace directory. An empty path defaults
// to DefaultWorkspacePath.
func (c *Client) ListFiles(ctx context.Context, sandboxID, path string) ([]models.FileInfo, error) {
	if path == "" {
		path = DefaultWorkspacePath
	}
	payload := struct {
		SandboxID string `json:"sandbox_id"`
		Path      string `json:"path"`
	}{SandboxID: sandboxID, Path: path}

	var resp struct {
		Files []models.FileInfo `json:"files"`
	}
	if err := c.post(ctx, opListFiles, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// ReadFile returns the content of one workspace file.
func (c *Client) ReadFile(ctx context.Context, sandboxID, path string) (string, error) {
	payload := struct {
		SandboxID string `json:"sandbox_id"`
		Path      string `json:"path"`
	}{SandboxID: sandboxID, Path: path}

	var resp struct {
		Content string `json:"content"`
	}
	if err := c.post(ctx, opReadFile, payload, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GetLogs fetches the sandbox log bundle. A tail of zero or less defaults
// to DefaultLogTail lines.
func (c *Client) GetLogs(ctx context.Context, sandboxID string, tail int) (*models.LogBundle, error) {
	if tail <= 0 {
		tail = DefaultLogTail
	}
	payload := struct {
		SandboxID string `json:"sandbox_id"`
		Tail      int    `json:"tail"`
	}{SandboxID: sandboxID, Tail: tail}

	var resp struct {
		Logs models.LogBundle `json:"logs"`
	}
	if err := c.post(ctx, opGetLogs, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Logs, nil
}

// Health probes provider liveness. Every failure class collapses to false;
// this is the one operation that never propagates an error.
func (c *Client) Health(ctx context.Context) bool {
	url, err := c.endpoints.URL(opHealth)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if c.apiSecret != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Status == "ok"
}
