package sync

import (
	"testing"

	"github.com/nuumi-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func comment(id uint, parentID *uint) models.Comment {
	return models.Comment{
		Model:    gorm.Model{ID: id},
		PostID:   "post1",
		UserID:   1,
		ParentID: parentID,
		Content:  "c",
	}
}

func ptr(v uint) *uint { return &v }

func TestBuildCommentTree(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(1)),
		comment(4, ptr(2)),
		comment(5, nil),
	}

	tree := BuildCommentTree(comments)

	require.Len(t, tree.Roots(), 2)
	assert.Equal(t, 5, tree.Size())

	root := tree.Node(1)
	require.NotNil(t, root)
	require.Len(t, root.Children, 2)
	assert.Equal(t, uint(2), root.Children[0].Comment.ID)
	assert.Equal(t, uint(3), root.Children[1].Comment.ID)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, uint(4), root.Children[0].Children[0].Comment.ID)
}

func TestBuildCommentTreeMissingParentBecomesRoot(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(99)), // parent was deleted
	}

	tree := BuildCommentTree(comments)

	require.Len(t, tree.Roots(), 2)
	assert.Equal(t, uint(2), tree.Roots()[1].Comment.ID)
}

func TestWalkDepthFirstOrder(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(2)),
		comment(4, nil),
	}
	tree := BuildCommentTree(comments)

	var visited []uint
	tree.WalkDepthFirst(-1, func(node *CommentNode, depth int) bool {
		visited = append(visited, node.Comment.ID)
		return true
	})

	assert.Equal(t, []uint{1, 2, 3, 4}, visited)
}

func TestWalkDepthFirstRespectsMaxDepth(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, ptr(1)),
		comment(3, ptr(2)),
	}
	tree := BuildCommentTree(comments)

	var visited []uint
	tree.WalkDepthFirst(1, func(node *CommentNode, depth int) bool {
		visited = append(visited, node.Comment.ID)
		return true
	})

	assert.Equal(t, []uint{1, 2}, visited)
}

func TestWalkDepthFirstStopsEarly(t *testing.T) {
	comments := []models.Comment{
		comment(1, nil),
		comment(2, nil),
		comment(3, nil),
	}
	tree := BuildCommentTree(comments)

	var visited int
	tree.WalkDepthFirst(-1, func(node *CommentNode, depth int) bool {
		visited++
		return visited < 2
	})

	assert.Equal(t, 2, visited)
}

func TestWithinDepth(t *testing.T) {
	assert.True(t, WithinDepth(5, -1))
	assert.True(t, WithinDepth(0, 0))
	assert.False(t, WithinDepth(1, 0))
	assert.True(t, WithinDepth(2, 2))
	assert.False(t, WithinDepth(3, 2))
}
