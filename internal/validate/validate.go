// Package validate runs consistency checks over a book's story graph.
package validate

import (
	"fmt"
	"sort"

	"gamebooks/internal/domain"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	CodeMissingStart         = "missing_start"
	CodeMultipleStart        = "multiple_start"
	CodeDanglingEdge         = "dangling_edge"
	CodeDanglingChoiceTarget = "dangling_choice_target"
	CodeUnsetChoiceTarget    = "unset_choice_target"
	CodeUnknownEvent         = "unknown_event"
	CodeDuplicateParagraph   = "duplicate_paragraph"
	CodeUnreachableNode      = "unreachable_node"
)

type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
	NodeID   string   `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	EdgeID   string   `json:"edgeId,omitempty" yaml:"edgeId,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

func (r Report) Errors() []Issue   { return r.filter(SeverityError) }
func (r Report) Warnings() []Issue { return r.filter(SeverityWarn) }

func (r Report) HasErrors() bool { return len(r.Errors()) > 0 }

// Count returns the number of issues with code.
func (r Report) Count(code string) int {
	n := 0
	for _, is := range r.Issues {
		if is.Code == code {
			n++
		}
	}
	return n
}

func (r Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// Run checks book and returns every issue found, in node order.
func Run(book domain.Book) Report {
	issues := make([]Issue, 0)

	nodes := make(map[string]domain.Node, len(book.Nodes))
	for _, n := range book.Nodes {
		nodes[n.ID] = n
	}

	issues = append(issues, checkStart(book.Nodes)...)
	issues = append(issues, checkEdges(book.Edges, nodes)...)
	issues = append(issues, checkChoiceTargets(book.Nodes, nodes)...)
	issues = append(issues, checkEvents(book)...)
	issues = append(issues, checkParagraphs(book.Nodes)...)
	issues = append(issues, checkReachability(book)...)

	return Report{Issues: issues}
}

func checkStart(nodes []domain.Node) []Issue {
	var starts []domain.Node
	for _, n := range nodes {
		if n.Type == domain.NodeTypeStart {
			starts = append(starts, n)
		}
	}
	if len(starts) == 0 {
		return []Issue{{
			Severity: SeverityError,
			Code:     CodeMissingStart,
			Message:  "book has no start node",
		}}
	}
	var issues []Issue
	for _, n := range starts[1:] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeMultipleStart,
			Message:  fmt.Sprintf("extra start node %q", n.Label),
			NodeID:   n.ID,
		})
	}
	return issues
}

func checkEdges(edges []domain.Edge, nodes map[string]domain.Node) []Issue {
	var issues []Issue
	for _, e := range edges {
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := nodes[end]; ok {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeDanglingEdge,
				Message:  fmt.Sprintf("edge references missing node %q", end),
				EdgeID:   e.ID,
			})
		}
	}
	return issues
}

func checkChoiceTargets(list []domain.Node, nodes map[string]domain.Node) []Issue {
	var issues []Issue
	for _, n := range list {
		for _, c := range n.Data.Choices {
			for _, target := range c.Targets() {
				switch {
				case target == "":
					issues = append(issues, Issue{
						Severity: SeverityWarn,
						Code:     CodeUnsetChoiceTarget,
						Message:  fmt.Sprintf("%s choice %q has no target", c.ChoiceType(), c.ChoiceID()),
						NodeID:   n.ID,
					})
				case !exists(nodes, target):
					issues = append(issues, Issue{
						Severity: SeverityError,
						Code:     CodeDanglingChoiceTarget,
						Message:  fmt.Sprintf("choice %q points at missing node %q", c.ChoiceID(), target),
						NodeID:   n.ID,
					})
				}
			}
		}
		for _, target := range n.Data.Actions.Targets() {
			if target != "" && !exists(nodes, target) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     CodeDanglingChoiceTarget,
					Message:  fmt.Sprintf("dice outcome points at missing node %q", target),
					NodeID:   n.ID,
				})
			}
		}
	}
	return issues
}

func checkEvents(book domain.Book) []Issue {
	known := make(map[string]bool, len(book.Events))
	for _, ev := range book.Events {
		known[ev.ID] = true
	}

	var issues []Issue
	report := func(refs []string, nodeID, edgeID string) {
		for _, id := range refs {
			if known[id] {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     CodeUnknownEvent,
				Message:  fmt.Sprintf("reference to undefined event %q", id),
				NodeID:   nodeID,
				EdgeID:   edgeID,
			})
		}
	}
	for _, n := range book.Nodes {
		report(n.Data.Actions.ReferencedEvents(), n.ID, "")
		report(n.Data.Choices.ReferencedEvents(), n.ID, "")
	}
	for _, e := range book.Edges {
		if e.Data != nil {
			report(e.Data.Actions.ReferencedEvents(), "", e.ID)
		}
	}
	return issues
}

func checkParagraphs(nodes []domain.Node) []Issue {
	owners := make(map[int][]string)
	for _, n := range nodes {
		if p := n.Data.ParagraphNumber; p > 0 {
			owners[p] = append(owners[p], n.ID)
		}
	}
	numbers := make([]int, 0, len(owners))
	for p, ids := range owners {
		if len(ids) > 1 {
			numbers = append(numbers, p)
		}
	}
	sort.Ints(numbers)

	var issues []Issue
	for _, p := range numbers {
		for _, id := range owners[p][1:] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     CodeDuplicateParagraph,
				Message:  fmt.Sprintf("paragraph %d is used by %d nodes", p, len(owners[p])),
				NodeID:   id,
			})
		}
	}
	return issues
}

// checkReachability walks edges, choice targets and dice outcomes from the
// start node. Location nodes are map pins and are never reported.
func checkReachability(book domain.Book) []Issue {
	var start string
	for _, n := range book.Nodes {
		if n.Type == domain.NodeTypeStart {
			start = n.ID
			break
		}
	}
	if start == "" {
		return nil
	}

	next := make(map[string][]string)
	for _, e := range book.Edges {
		next[e.Source] = append(next[e.Source], e.Target)
		if e.Data != nil {
			next[e.Target] = append(next[e.Target], e.Data.Actions.Targets()...)
		}
	}
	for _, n := range book.Nodes {
		next[n.ID] = append(next[n.ID], n.Data.Choices.Targets()...)
		next[n.ID] = append(next[n.ID], n.Data.Actions.Targets()...)
	}

	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, t := range next[id] {
			if t != "" && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}

	var issues []Issue
	for _, n := range book.Nodes {
		if seen[n.ID] || n.Type == domain.NodeTypeLocation {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     CodeUnreachableNode,
			Message:  fmt.Sprintf("node %q cannot be reached from the start", n.Label),
			NodeID:   n.ID,
		})
	}
	return issues
}

func exists(nodes map[string]domain.Node, id string) bool {
	_, ok := nodes[id]
	return ok
}
