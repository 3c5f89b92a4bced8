package hooks

import (
	"errors"
	"html/template"
)

// Admin dashboard columns.
const (
	PrimaryWidgetsPoint   = "admin-widgets-primary"
	SecondaryWidgetsPoint = "admin-widgets-secondary"
)

// AdminWidget is a box on the administration dashboard.
type AdminWidget struct {
	ID    string
	Title string
	Body  func(rc RenderContext) (template.HTML, error)
}

// AdminWidgetHook adds a widget to the administration dashboard.
type AdminWidgetHook struct {
	*pointHook[AdminWidget]
}

// NewAdminWidgetHook registers widget in the primary or secondary column.
func NewAdminWidgetHook(ext *Extension, reg *Registry, widget AdminWidget, primary bool) (*AdminWidgetHook, error) {
	if widget.ID == "" || widget.Body == nil {
		return nil, errors.New("admin widgets require an ID and a body")
	}

	point := reg.SecondaryWidgets
	if primary {
		point = reg.PrimaryWidgets
	}
	h := &AdminWidgetHook{newPointHook(ext, point, widget)}
	ext.attach(h)
	return h, nil
}
