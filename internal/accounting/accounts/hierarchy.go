package accounts

import "sort"

// HierarchyNode is a chart of accounts tree node with rolled-up subtotals.
type HierarchyNode struct {
	Account  Account          `json:"account"`
	Children []*HierarchyNode `json:"children,omitempty"`
	Subtotal float64          `json:"subtotal"`
}

// TypeSummary aggregates counts and balances per account type.
type TypeSummary struct {
	Type    AccountType `json:"type"`
	Count   int         `json:"count"`
	Balance float64     `json:"balance"`
}

// Hierarchy is the full tree plus per-type aggregates.
type Hierarchy struct {
	Roots     []*HierarchyNode `json:"roots"`
	Summaries []TypeSummary    `json:"summaries"`
}

// BuildHierarchy assembles the parent/child tree from the flat active set.
// A node's subtotal is the sum of its children's subtotals when it has
// children, otherwise its own current balance.
func BuildHierarchy(flat []Account) Hierarchy {
	nodes := make(map[int64]*HierarchyNode, len(flat))
	for _, a := range flat {
		nodes[a.ID] = &HierarchyNode{Account: a}
	}

	var roots []*HierarchyNode
	for _, a := range flat {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	for _, root := range roots {
		rollUp(root)
	}

	byType := make(map[AccountType]*TypeSummary)
	for _, a := range flat {
		s, ok := byType[a.Type]
		if !ok {
			s = &TypeSummary{Type: a.Type}
			byType[a.Type] = s
		}
		s.Count++
		s.Balance += a.CurrentBalance
	}
	summaries := make([]TypeSummary, 0, len(byType))
	for _, t := range []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense} {
		if s, ok := byType[t]; ok {
			summaries = append(summaries, *s)
		}
	}

	return Hierarchy{Roots: roots, Summaries: summaries}
}

func rollUp(node *HierarchyNode) float64 {
	if len(node.Children) == 0 {
		node.Subtotal = node.Account.CurrentBalance
		return node.Subtotal
	}
	var sum float64
	for _, child := range node.Children {
		sum += rollUp(child)
	}
	node.Subtotal = sum
	return sum
}

func sortNodes(nodes []*HierarchyNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Account.Code < nodes[j].Account.Code
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
