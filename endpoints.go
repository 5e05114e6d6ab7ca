package agentbox

import (
	"fmt"
	"strings"
)

// Logical control-plane operations. The provider exposes one independent
// address per operation rather than a single routed endpoint.
const (
	opCreate    = "create-sandbox"
	opPause     = "pause-sandbox"
	opResume    = "resume-sandbox"
	opTerminate = "terminate-sandbox"
	opListFiles = "list-files"
	opReadFile  = "read-file"
	opGetLogs   = "get-logs"
	opHealth    = "health"
)

// operationSuffixes maps logical operation names to the fixed per-function
// address suffixes the provider deploys.
var operationSuffixes = map[string]string{
	opCreate:    "api-create-sandbox",
	opPause:     "api-pause-sandbox",
	opResume:    "api-resume-sandbox",
	opTerminate: "api-terminate-sandbox",
	opListFiles: "api-list-files",
	opReadFile:  "api-read-file",
	opGetLogs:   "api-get-logs",
	opHealth:    "health",
}

// environmentSuffixes are deployment-environment markers that may trail the
// app name in a base address and are not part of the canonical prefix.
var environmentSuffixes = []string{"-dev", "-staging"}

// Endpoints builds per-operation endpoint URLs from a base address. It is
// parsed once at client creation; resolving an operation afterwards is pure
// string substitution with no further surgery on the input.
type Endpoints struct {
	scheme    string
	workspace string
	app       string
	domain    string
}

// ParseBaseURL canonicalizes a base address into its components. The input
// may be the bare prefix ("https://acme--agent-sandbox"), a full operation
// endpoint, or either of those with an environment suffix or trailing slash;
// all variants canonicalize to the same Endpoints value.
func ParseBaseURL(raw string) (*Endpoints, error) {
	rest := strings.TrimRight(raw, "/")

	scheme := "https"
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme = rest[:i]
		rest = rest[i+3:]
	}
	if rest == "" {
		return nil, fmt.Errorf("empty base address")
	}

	domain := "modal.run"
	if i := strings.Index(rest, "."); i >= 0 {
		domain = rest[i+1:]
		rest = rest[:i]
	}

	workspace, label, ok := strings.Cut(rest, "--")
	if !ok || workspace == "" || label == "" {
		return nil, fmt.Errorf("base address %q is not of the form workspace--app", raw)
	}

	for _, suffix := range operationSuffixes {
		label = strings.TrimSuffix(label, "-"+suffix)
	}
	for _, env := range environmentSuffixes {
		label = strings.TrimSuffix(label, env)
	}
	if label == "" {
		return nil, fmt.Errorf("base address %q has no app name", raw)
	}

	return &Endpoints{
		scheme:    scheme,
		workspace: workspace,
		app:       label,
		domain:    domain,
	}, nil
}

// URL returns the fully-qualified endpoint for a logical operation name.
func (e *Endpoints) URL(operation string) (string, error) {
	suffix, ok := operationSuffixes[operation]
	if !ok {
		return "", fmt.Errorf("unknown operation %q", operation)
	}
	return fmt.Sprintf("%s://%s--%s-%s.%s", e.scheme, e.workspace, e.app, suffix, e.domain), nil
}

// Base returns the canonical base address the endpoints were parsed to.
func (e *Endpoints) Base() string {
	return fmt.Sprintf("%s://%s--%s.%s", e.scheme, e.workspace, e.app, e.domain)
}
