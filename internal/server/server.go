// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools that depend on abstractions. No business
// logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/devops-mcp/adomcp/internal/ado"
	"github.com/devops-mcp/adomcp/internal/domains"
	"github.com/devops-mcp/adomcp/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Options carries everything the composition root needs to assemble
// the server. Client must be non-nil.
type Options struct {
	Version string
	Domains domains.Set
	Client  *ado.Client
	Logger  zerolog.Logger
}

// New creates and configures the MCP server with the tools of every
// enabled domain registered. This is the single place where all
// dependencies are resolved.
func New(opts Options) (*server.MCPServer, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("server: nil Azure DevOps client")
	}
	version := opts.Version
	if version == "" {
		version = Version
	}

	s := server.NewMCPServer(
		"Azure DevOps MCP Server",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registered := 0
	if opts.Domains.Has(domains.Repositories) {
		tools.NewRepoTools(opts.Client).Register(s)
		registered++
	}
	if opts.Domains.Has(domains.Work) {
		tools.NewWorkTools(opts.Client).Register(s)
		registered++
	}
	if opts.Domains.Has(domains.TestPlans) {
		tools.NewTestPlanTools(opts.Client).Register(s)
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("server: no tool domains enabled")
	}
	opts.Logger.Info().
		Int("domains", registered).
		Str("version", version).
		Msg("server assembled")

	return s, nil
}

// serverInstructions returns the system instructions that tell the AI
// how to use the Azure DevOps tools effectively.
func serverInstructions() string {
	return `You have access to an Azure DevOps MCP server.

The tools are grouped by domain:
- repo_*: Git repositories, branches, and pull requests
- wit_*: work items and work item comments
- testplan_*: test plans and test cases

Rules:
- Always pass the project name or id where a tool requires it. If the user
  has not named a project, ask instead of guessing.
- Work item ids and test plan ids are positive integers.
- Refs passed to pull request tools must be fully qualified
  (refs/heads/<branch>), not bare branch names.
- Tool results are JSON documents from the Azure DevOps REST API. Summarize
  them for the user instead of echoing the raw payload.`
}
