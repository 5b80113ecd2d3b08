package model

// Sentinel node identifiers injected by the backend around every trace.
const (
	StartNodeID = "__start__"
	EndNodeID   = "__end__"
)

// GraphNode is one activity in the directly-follows graph.
type GraphNode struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Frequency int    `json:"frequency"`
	IsStart   bool   `json:"isStart,omitempty"` // activity begins at least one case
	IsEnd     bool   `json:"isEnd,omitempty"`   // activity ends at least one case
	IsSpecial bool   `json:"isSpecial,omitempty"`
}

// GraphEdge is a directly-follows relation: Target immediately followed
// Source in Weight observed cases.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// ProcessGraph is the rendering input derived from backend DFG output.
// Every edge must reference node ids present in Nodes (the rendering
// layer drops edges that do not).
type ProcessGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// NodeSelection is the payload raised when a non-sentinel node is clicked.
type NodeSelection struct {
	ID        string
	Label     string
	Frequency int
}
