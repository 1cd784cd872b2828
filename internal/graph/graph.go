// Package graph generates DOT and Mermaid graphs of an assembled topology.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/lex00/wetwire-albwaf-go/internal/serialize"
	"github.com/lex00/wetwire-albwaf-go/internal/topology"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates graphs from an assembled plan.
type Generator struct {
	// Resources draws CloudFormation resources instead of declarations.
	Resources bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByOwner groups resources by the declaration that owns them.
	// Only used with Resources.
	ClusterByOwner bool
}

// Generate creates the graph and writes it to w.
func (g *Generator) Generate(plan *topology.Plan, w io.Writer) error {
	var graph *dot.Graph
	if g.Resources {
		var err error
		graph, err = g.resourceGraph(plan)
		if err != nil {
			return err
		}
	} else {
		graph = g.declarationGraph(plan)
	}

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(plan *topology.Plan) (string, error) {
	var sb strings.Builder
	if err := g.Generate(plan, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func newGraph() *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})
	return graph
}

// declarationGraph draws one node per declaration. Dependency edges are
// black; binding edges are blue and labelled with what carries them.
func (g *Generator) declarationGraph(plan *topology.Plan) *dot.Graph {
	graph := newGraph()

	for _, d := range plan.Declarations() {
		n := graph.Node(d.ID())
		n.Label(d.ID() + "\\n[" + string(d.Kind()) + "]")
	}

	bound := make(map[string]bool)
	for _, b := range plan.Bindings() {
		e := graph.Edge(graph.Node(b.Source), graph.Node(b.Target))
		e.Attr("color", "blue")
		e.Attr("style", "dashed")
		e.Label(b.Via)
		bound[b.Source+"->"+b.Target] = true
	}

	for _, edge := range plan.Edges() {
		if bound[edge.To+"->"+edge.From] {
			continue
		}
		graph.Edge(graph.Node(edge.From), graph.Node(edge.To))
	}

	return graph
}

// resourceGraph draws one node per CloudFormation resource. GetAtt edges
// are blue.
func (g *Generator) resourceGraph(plan *topology.Plan) (*dot.Graph, error) {
	graph := newGraph()
	resources := plan.Resources()

	if g.ClusterByOwner {
		owners := make(map[string][]int)
		var order []string
		for i, r := range resources {
			if _, ok := owners[r.Owner]; !ok {
				order = append(order, r.Owner)
			}
			owners[r.Owner] = append(owners[r.Owner], i)
		}

		for _, owner := range order {
			indexes := owners[owner]
			if len(indexes) == 1 {
				r := resources[indexes[0]]
				graph.Node(r.LogicalID).Label(r.LogicalID + "\\n[" + r.Resource.ResourceType() + "]")
				continue
			}
			cluster := graph.Subgraph("cluster_"+owner, dot.ClusterOption{})
			cluster.Attr("label", owner)
			cluster.Attr("style", "rounded")
			cluster.Attr("bgcolor", "lightyellow")
			for _, i := range indexes {
				r := resources[i]
				cluster.Node(r.LogicalID).Label(r.LogicalID + "\\n[" + r.Resource.ResourceType() + "]")
			}
		}
	} else {
		for _, r := range resources {
			graph.Node(r.LogicalID).Label(r.LogicalID + "\\n[" + r.Resource.ResourceType() + "]")
		}
	}

	known := make(map[string]bool, len(resources))
	for _, r := range resources {
		known[r.LogicalID] = true
	}

	for _, r := range resources {
		props, err := serialize.Resource(r.Resource)
		if err != nil {
			return nil, err
		}

		getAtts := make(map[string]bool)
		for _, name := range serialize.AttributeReferences(props) {
			getAtts[name] = true
		}

		deps := append(serialize.References(props), r.DependsOn...)
		sort.Strings(deps)
		for i, dep := range deps {
			if !known[dep] || dep == r.LogicalID || (i > 0 && deps[i-1] == dep) {
				continue
			}
			e := graph.Edge(graph.Node(r.LogicalID), graph.Node(dep))
			if getAtts[dep] {
				e.Attr("color", "blue")
			}
		}
	}

	return graph, nil
}
