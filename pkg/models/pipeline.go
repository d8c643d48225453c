package models

import "slices"

// NodeType discriminates the kinds of pipeline step.
type NodeType string

const (
	NodeTypeTool      NodeType = "tool"
	NodeTypeAgent     NodeType = "agent"
	NodeTypeCondition NodeType = "condition"
	NodeTypeApproval  NodeType = "approval"
)

// Pipeline is a user-submitted execution graph, immutable for the duration
// of a run.
type Pipeline struct {
	Steps    Graph     `json:"steps"`
	Policies *Policies `json:"policies,omitempty"`
}

// Graph holds the pipeline DAG.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one unit of pipeline work. Type-specific settings live in Config:
// tool nodes carry "tool" plus tool inputs, agent nodes carry
// "prompt"/"provider"/"model"/"max_tokens"/"temperature"/"system_prompt",
// condition nodes carry "condition".
type Node struct {
	ID     string         `json:"id"`
	Type   NodeType       `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// Edge is a dependency between two node ids.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Policies carries run-level execution policy.
type Policies struct {
	AllowedTools []string `json:"allowedTools,omitempty"`
}

// Allows reports whether the named tool passes the allow-list. An empty or
// absent list is unrestricted.
func (p *Policies) Allows(tool string) bool {
	if p == nil || len(p.AllowedTools) == 0 {
		return true
	}
	return slices.Contains(p.AllowedTools, tool)
}
