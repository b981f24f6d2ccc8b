package pdt

import (
	"fmt"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"io"
	"strings"
)

//GraphDescription returns the description of a node for tree rendering as a graph.
func (node FlatNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("#", node.Samples))
	sb.WriteString(fmt.Sprintln("id: ", node.NodeId))
	if node.IsLeaf() {
		sb.WriteString(fmt.Sprintf("value: %6.5g", node.Value))
	} else {
		sb.WriteString(fmt.Sprintf("f_%d > %6.5f", node.Col, node.Threshold))
	}
	return sb.String()
}

func recurrentDraw(g *cgraph.Graph, nodes []FlatNode, nodeNumber int, parentNode *cgraph.Node, edgeLabel string) error {
	currentNode, err := g.CreateNode(fmt.Sprint(nodes[nodeNumber].NodeId))
	if err != nil {
		return err
	}

	if parentNode != nil {
		edge, err := g.CreateEdge("", parentNode, currentNode)
		if err != nil {
			return err
		}
		edge.SetLabel(edgeLabel)
	}

	currentNode.Set("label", nodes[nodeNumber].GraphDescription())
	if nodes[nodeNumber].IsLeaf() {
		currentNode.Set("shape", "box")
		return nil
	}
	if err := recurrentDraw(g, nodes, nodes[nodeNumber].ThenIndex, currentNode, "yes"); err != nil {
		return err
	}
	return recurrentDraw(g, nodes, nodes[nodeNumber].ElseIndex, currentNode, "no")
}

//DrawGraph builds a graphviz graph of a tree. The caller closes both returned values.
func DrawGraph(root Node) (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		graphViz.Close()
		return nil, nil, err
	}

	if err := recurrentDraw(graph, Flatten(root), 0, nil, ""); err != nil {
		graph.Close()
		graphViz.Close()
		return nil, nil, err
	}
	return graphViz, graph, nil
}

//GraphFormat maps a file extension to a graphviz output format.
func GraphFormat(figureType string) (graphviz.Format, error) {
	format, ok := map[string]graphviz.Format{
		"png": graphviz.PNG,
		"svg": graphviz.SVG,
		"jpg": graphviz.JPG,
		"dot": graphviz.XDOT,
	}[figureType]
	if !ok {
		return "", fmt.Errorf("unknown figure type %q", figureType)
	}
	return format, nil
}

//RenderTree draws a tree into a file; figureType is one of png, svg, jpg and dot.
func RenderTree(root Node, figureType, fileName string) error {
	format, err := GraphFormat(figureType)
	if err != nil {
		return err
	}
	graphViz, graph, err := DrawGraph(root)
	if err != nil {
		return err
	}
	defer graphViz.Close()
	defer graph.Close()

	return graphViz.RenderFilename(graph, format, fileName)
}

//WriteTree draws a tree into a writer.
func WriteTree(root Node, figureType string, w io.Writer) error {
	format, err := GraphFormat(figureType)
	if err != nil {
		return err
	}
	graphViz, graph, err := DrawGraph(root)
	if err != nil {
		return err
	}
	defer graphViz.Close()
	defer graph.Close()

	return graphViz.Render(graph, format, w)
}
