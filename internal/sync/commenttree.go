package sync

import "github.com/nuumi-app/backend/internal/models"

// CommentNode is one comment with its direct replies
type CommentNode struct {
	Comment  models.Comment `json:"comment"`
	Children []*CommentNode `json:"replies,omitempty"`
}

// CommentTree is the reply structure of one post's comments, built once
// from the flat server response. Traversal is separate from rendering.
type CommentTree struct {
	roots []*CommentNode
	byID  map[uint]*CommentNode
}

// BuildCommentTree assembles the reply tree from a flat, ordered comment
// list. A comment whose parent is missing from the list is kept as a
// root rather than dropped.
func BuildCommentTree(comments []models.Comment) *CommentTree {
	t := &CommentTree{byID: make(map[uint]*CommentNode, len(comments))}
	for i := range comments {
		node := &CommentNode{Comment: comments[i]}
		t.byID[comments[i].ID] = node
	}
	for i := range comments {
		node := t.byID[comments[i].ID]
		parentID := comments[i].ParentID
		if parentID != nil {
			if parent, ok := t.byID[*parentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		t.roots = append(t.roots, node)
	}
	return t
}

// Roots returns the top-level comments in list order
func (t *CommentTree) Roots() []*CommentNode {
	return t.roots
}

// Node returns the node for a comment ID, or nil
func (t *CommentTree) Node(id uint) *CommentNode {
	return t.byID[id]
}

// Size returns the total number of comments in the tree
func (t *CommentTree) Size() int {
	return len(t.byID)
}

// WalkDepthFirst visits every node depth-first in reply order, skipping
// subtrees below maxDepth. Roots are at depth 0; maxDepth < 0 means
// unlimited. The walk stops early if fn returns false.
func (t *CommentTree) WalkDepthFirst(maxDepth int, fn func(node *CommentNode, depth int) bool) {
	var walk func(nodes []*CommentNode, depth int) bool
	walk = func(nodes []*CommentNode, depth int) bool {
		if !WithinDepth(depth, maxDepth) {
			return true
		}
		for _, n := range nodes {
			if !fn(n, depth) {
				return false
			}
			if !walk(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	walk(t.roots, 0)
}

// WithinDepth reports whether a node at the given depth is inside the
// limit. A negative limit admits any depth.
func WithinDepth(depth, maxDepth int) bool {
	return maxDepth < 0 || depth <= maxDepth
}
