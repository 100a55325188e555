// ABOUTME: GraphViz rendering of the stage-gate rule catalog
// ABOUTME: Stages become nodes and active gates become labelled edges
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
)

// RuleGraph is a rendered graph plus the counts callers report alongside it.
type RuleGraph struct {
	ObjectType models.ObjectType
	DOT        string
	Nodes      int
	Edges      int
}

// GenerateRuleGraph renders the active gates for objectType as XDOT source.
// Gates between stages outside the rank table still get nodes of their own.
func GenerateRuleGraph(ctx context.Context, catalog *rules.Catalog, objectType models.ObjectType) (*RuleGraph, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(fmt.Sprintf("%s stage gates", objectType))

	out := &RuleGraph{ObjectType: objectType}
	nodes := make(map[string]*cgraph.Node)
	addNode := func(id, label string, ranked bool) (*cgraph.Node, error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName(id)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", id, err)
		}
		n.SetLabel(label)
		n.SetShape("box")
		n.SetStyle("filled")
		if ranked {
			n.SetFillColor("lightblue")
		} else {
			n.SetFillColor("lightgrey")
		}
		nodes[id] = n
		out.Nodes++
		return n, nil
	}

	for _, s := range rules.Stages(objectType) {
		if _, err := addNode(s.ID, s.Label, true); err != nil {
			return nil, err
		}
	}

	for _, r := range catalog.Rules(objectType) {
		from, err := addNode(r.FromStage, rules.StageLabel(objectType, r.FromStage), false)
		if err != nil {
			return nil, err
		}
		to, err := addNode(r.ToStage, rules.StageLabel(objectType, r.ToStage), false)
		if err != nil {
			return nil, err
		}
		edge, err := graph.CreateEdgeByName(r.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to create edge %s: %w", r.ID, err)
		}
		edge.SetLabel(gateLabel(r))
		if hasBlockingDependency(r) {
			edge.SetStyle("bold")
		}
		out.Edges++
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	out.DOT = buf.String()
	return out, nil
}

func gateLabel(r models.StageGateRule) string {
	label := fmt.Sprintf("%d fields", len(r.RequiredFields))
	if n := len(r.Conditions); n > 0 {
		label += fmt.Sprintf(", %d conditions", n)
	}
	if n := len(r.Dependencies); n > 0 {
		label += fmt.Sprintf(", %d deps", n)
	}
	return label
}

func hasBlockingDependency(r models.StageGateRule) bool {
	for _, d := range r.Dependencies {
		if d.Blocking {
			return true
		}
	}
	return false
}
