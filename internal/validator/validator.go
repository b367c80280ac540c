package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
)

// Severity ranks an issue. Only errors fail validation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a graph.
type Issue struct {
	Severity Severity
	NodeID   string
	Message  string
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.NodeID, i.Message)
}

// Options selects the checks to run.
type Options struct {
	// StartID, when set, must exist; nodes it cannot reach are reported.
	StartID string
	// Languages every content item must be authored in.
	Languages []string
	// BranchSlots, when positive, flags fan-outs wider than the slots available.
	BranchSlots int
}

// Report collects the issues of a validation run.
type Report struct {
	Issues []Issue
}

// Errors returns the issues with error severity.
func (r Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the errors, or returns nil when there are none.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

func (r *Report) add(sev Severity, nodeID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
}

// ValidateGraph checks every node of registry for structural problems.
func ValidateGraph(registry ports.NodeRegistry, opts Options) Report {
	var report Report
	nodes := registry.ListNodes()

	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			report.add(SeverityError, n.ID, "duplicate node ID")
		}
		seen[n.ID] = true
		checkNode(&report, n, opts)
	}

	if opts.StartID != "" {
		start, ok := registry.FindNode(opts.StartID)
		if !ok {
			report.add(SeverityError, opts.StartID, "start node not found")
		} else {
			reached := reachable(start)
			for _, n := range nodes {
				if !reached[n.ID] {
					report.add(SeverityWarning, n.ID, "unreachable from %s", opts.StartID)
				}
			}
		}
	}

	for _, cycle := range cycles(nodes) {
		report.add(SeverityWarning, cycle[0], "cycle: %s", strings.Join(cycle, " -> "))
	}
	return report
}

func checkNode(report *Report, n *domain.Node, opts Options) {
	if n.ContentCount() == 0 {
		report.add(SeverityError, n.ID, "node has no content")
	}

	for i, c := range n.Contents {
		for _, lang := range opts.Languages {
			if _, ok := c.Translations[lang]; !ok {
				report.add(SeverityWarning, n.ID, "content %d has no %q translation", i, lang)
			}
		}
	}

	for i, c := range n.Children {
		if c == nil {
			report.add(SeverityError, n.ID, "child %d is nil", i)
			continue
		}
		if c.Parent(n.ID) != n {
			report.add(SeverityError, n.ID, "child %s does not link back", c.ID)
		}
	}
	for _, p := range n.Parents {
		if p != nil && p.Child(n.ID) != n {
			report.add(SeverityError, n.ID, "parent %s does not link down", p.ID)
		}
	}

	if opts.BranchSlots > 0 && n.TotalChildren() > 1 && n.TotalChildren() > opts.BranchSlots {
		report.add(SeverityWarning, n.ID, "%d children but only %d branch slots; extra choices are dropped",
			n.TotalChildren(), opts.BranchSlots)
	}
	if n.TotalChildren() > 1 {
		for _, c := range n.Children {
			if c != nil && !c.IsBranch {
				report.add(SeverityWarning, n.ID, "choice %s is not marked as branch", c.ID)
			}
		}
	}
}

// reachable walks the graph breadth-first from start.
func reachable(start *domain.Node) map[string]bool {
	visited := map[string]bool{start.ID: true}
	queue := []*domain.Node{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range n.Children {
			if c != nil && !visited[c.ID] {
				visited[c.ID] = true
				queue = append(queue, c)
			}
		}
	}
	return visited
}

// cycles returns one path per back edge found by a depth-first walk, in
// registry order.
func cycles(nodes []*domain.Node) [][]string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(nodes))
	var stack []string
	var found [][]string

	var visit func(n *domain.Node)
	visit = func(n *domain.Node) {
		state[n.ID] = onStack
		stack = append(stack, n.ID)
		for _, c := range n.Children {
			if c == nil {
				continue
			}
			switch state[c.ID] {
			case unvisited:
				visit(c)
			case onStack:
				from := slices.Index(stack, c.ID)
				cycle := append(slices.Clone(stack[from:]), c.ID)
				found = append(found, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		state[n.ID] = done
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited {
			visit(n)
		}
	}
	return found
}
