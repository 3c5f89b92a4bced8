package hooks

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
)

// ErrMissingComment is returned when rendering a comment detail point without a comment.
var ErrMissingComment = errors.New("comment detail points require a comment")

// RenderContext is the data a render hands to hook callbacks.
type RenderContext struct {
	ReviewRequestID int64
	Comment         *Comment
	HTMLEmail       bool
}

var fragments = template.Must(template.New("fragments").Parse(`
{{define "navigation"}}{{range .}}<li><a href="{{.URL}}">{{.Label}}</a></li>{{end}}{{end}}
{{define "action"}}<li><a id="{{.ID}}" href="{{.URL}}">{{if .Image}}<img src="{{.Image}}" width="{{.ImageWidth}}" height="{{.ImageHeight}}" border="0" alt="" />{{end}}{{.Label}}</a></li>{{end}}
{{define "actions"}}{{range .}}{{template "action" .}}{{end}}{{end}}
{{define "dropdowns"}}{{range .}}<li class="has-menu"><a id="{{.ID}}" href="#">{{.Label}} <span class="rb-icon rb-icon-dropdown-arrow"></span></a><ul>{{range .Items}}{{template "action" .}}{{end}}</ul></li>{{end}}{{end}}
{{define "widget"}}<div class="admin-widget" id="{{.ID}}"><h2>{{.Title}}</h2><div class="admin-widget-body">{{.Body}}</div></div>{{end}}
`))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s fragment: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Renderer renders named insertion points, one fragment per hook entry.
type Renderer struct {
	reg    *Registry
	logger *zap.Logger
}

// NewRenderer creates a renderer over reg.
func NewRenderer(reg *Registry, logger *zap.Logger) *Renderer {
	return &Renderer{reg: reg, logger: logger}
}

// Points lists the insertion points Render understands.
func (r *Renderer) Points() []string {
	return []string{
		NavigationBarPoint,
		DiffViewerActionsPoint,
		ReviewRequestActionsPoint,
		HeaderActionsPoint,
		ReviewRequestDropdownActionsPoint,
		HeaderDropdownActionsPoint,
		CommentDetailPoint,
		CommentDetailEmailPoint,
		PrimaryWidgetsPoint,
		SecondaryWidgetsPoint,
	}
}

// Render returns the fragments contributed to point, in registration order.
// Hooks that fail are logged and left out.
func (r *Renderer) Render(point string, rc RenderContext) ([]template.HTML, error) {
	var out []template.HTML

	switch point {
	case NavigationBarPoint:
		out = Collect(r.reg.NavigationBar, r.logger, func(e *Entry[[]NavigationItem]) (template.HTML, error) {
			items := make([]NavigationItem, 0, len(e.Value))
			for _, item := range e.Value {
				if item.URLName != "" {
					url, err := r.reg.ResolveURL(item.URLName)
					if err != nil {
						return "", err
					}
					item.URL = url
				}
				items = append(items, item)
			}
			return execute("navigation", items)
		})

	case DiffViewerActionsPoint, ReviewRequestActionsPoint, HeaderActionsPoint:
		p, err := r.reg.actionPoint(point)
		if err != nil {
			return nil, err
		}
		out = Collect(p, r.logger, func(e *Entry[ActionProvider]) (template.HTML, error) {
			actions, err := e.Value(rc)
			if err != nil {
				return "", err
			}
			return execute("actions", actions)
		})

	case ReviewRequestDropdownActionsPoint, HeaderDropdownActionsPoint:
		p, err := r.reg.dropdownPoint(point)
		if err != nil {
			return nil, err
		}
		out = Collect(p, r.logger, func(e *Entry[DropdownProvider]) (template.HTML, error) {
			menus, err := e.Value(rc)
			if err != nil {
				return "", err
			}
			return execute("dropdowns", menus)
		})

	case CommentDetailPoint, CommentDetailEmailPoint:
		if rc.Comment == nil {
			return nil, ErrMissingComment
		}
		comment := *rc.Comment
		out = Collect(r.reg.CommentDetails, r.logger, func(e *Entry[CommentDetailRenderer]) (template.HTML, error) {
			if point == CommentDetailEmailPoint {
				return e.Value.RenderEmailCommentDetail(comment, rc.HTMLEmail)
			}
			return e.Value.RenderReviewCommentDetail(comment)
		})

	case PrimaryWidgetsPoint, SecondaryWidgetsPoint:
		p := r.reg.SecondaryWidgets
		if point == PrimaryWidgetsPoint {
			p = r.reg.PrimaryWidgets
		}
		out = Collect(p, r.logger, func(e *Entry[AdminWidget]) (template.HTML, error) {
			body, err := e.Value.Body(rc)
			if err != nil {
				return "", err
			}
			return execute("widget", struct {
				ID    string
				Title string
				Body  template.HTML
			}{e.Value.ID, e.Value.Title, body})
		})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPoint, point)
	}

	kept := out[:0]
	for _, f := range out {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

// RenderHTML renders point and joins the fragments.
func (r *Renderer) RenderHTML(point string, rc RenderContext) (template.HTML, error) {
	parts, err := r.Render(point, rc)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return template.HTML(b.String()), nil
}
