package hooks

import "html/template"

// Comment detail insertion points. Both are served by CommentDetailDisplayHook.
const (
	CommentDetailPoint      = "comment-detail-display"
	CommentDetailEmailPoint = "comment-detail-display-email"
)

// Comment is the review comment a detail renderer decorates.
type Comment struct {
	ID    int64
	Text  string
	Extra map[string]any
}

// CommentDetailRenderer adds content below a review comment.
type CommentDetailRenderer interface {
	RenderReviewCommentDetail(comment Comment) (template.HTML, error)
	RenderEmailCommentDetail(comment Comment, isHTML bool) (template.HTML, error)
}

// CommentDetailDisplayHook registers a comment detail renderer.
type CommentDetailDisplayHook struct {
	*pointHook[CommentDetailRenderer]
}

// NewCommentDetailDisplayHook registers renderer.
func NewCommentDetailDisplayHook(ext *Extension, reg *Registry, renderer CommentDetailRenderer) *CommentDetailDisplayHook {
	h := &CommentDetailDisplayHook{newPointHook(ext, reg.CommentDetails, renderer)}
	ext.attach(h)
	return h
}
