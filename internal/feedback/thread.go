package feedback

import "brew-reviews/internal/models"

// buildThreads nests comments under their parents in one pass over an id index.
// Input order is kept at every level. Replies whose parent is missing become roots.
func buildThreads(comments []*models.Comment) []*models.CommentThread {
	nodes := make(map[string]*models.CommentThread, len(comments))
	for _, c := range comments {
		nodes[c.ID] = &models.CommentThread{Comment: c, Replies: []*models.CommentThread{}}
	}

	roots := make([]*models.CommentThread, 0)
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentCommentID != nil {
			if parent, ok := nodes[*c.ParentCommentID]; ok && parent != node {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
