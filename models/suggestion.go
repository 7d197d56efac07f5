package models

// Graph is the similarity graph returned by the suggestion search. The
// query itself is the node with ID "query".
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// EmptyGraph has non-nil slices so it encodes as {"nodes":[],"links":[]}.
func EmptyGraph() Graph {
	return Graph{Nodes: []GraphNode{}, Links: []GraphLink{}}
}

type GraphNode struct {
	ID        string  `json:"id"`
	Label     string  `json:"label,omitempty"`
	Name      string  `json:"name,omitempty"`
	ImagePath *string `json:"imagePath,omitempty"`
}

// GraphLink connects two node ids; Value is the cosine similarity
// truncated to two decimals.
type GraphLink struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}
