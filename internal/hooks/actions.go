package hooks

import (
	"fmt"
)

// Action insertion points.
const (
	DiffViewerActionsPoint            = "diffviewer-actions"
	ReviewRequestActionsPoint         = "review-request-actions"
	HeaderActionsPoint                = "header-actions"
	ReviewRequestDropdownActionsPoint = "review-request-dropdown-actions"
	HeaderDropdownActionsPoint        = "header-dropdown-actions"
)

// Action is a link rendered in an action bar.
type Action struct {
	ID          string
	Label       string
	URL         string
	Image       string
	ImageWidth  int
	ImageHeight int
}

// DropdownAction is a menu of actions.
type DropdownAction struct {
	ID    string
	Label string
	Items []Action
}

// ActionProvider returns the actions to show for a render.
type ActionProvider func(rc RenderContext) ([]Action, error)

// DropdownProvider returns the menus to show for a render.
type DropdownProvider func(rc RenderContext) ([]DropdownAction, error)

// StaticActions returns a provider that always yields actions.
func StaticActions(actions ...Action) ActionProvider {
	copied := append([]Action(nil), actions...)
	return func(RenderContext) ([]Action, error) {
		return copied, nil
	}
}

// StaticDropdowns returns a provider that always yields menus.
func StaticDropdowns(menus ...DropdownAction) DropdownProvider {
	copied := append([]DropdownAction(nil), menus...)
	return func(RenderContext) ([]DropdownAction, error) {
		return copied, nil
	}
}

// ActionHook adds actions to one of the action bars.
type ActionHook struct {
	*pointHook[ActionProvider]
}

// NewActionHook registers provider into the action point named point.
func NewActionHook(ext *Extension, reg *Registry, point string, provider ActionProvider) (*ActionHook, error) {
	p, err := reg.actionPoint(point)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("action hook for %s requires a provider", point)
	}

	h := &ActionHook{newPointHook(ext, p, provider)}
	ext.attach(h)
	return h, nil
}

// DropdownActionHook adds menus to one of the dropdown action bars.
type DropdownActionHook struct {
	*pointHook[DropdownProvider]
}

// NewDropdownActionHook registers provider into the dropdown point named point.
func NewDropdownActionHook(ext *Extension, reg *Registry, point string, provider DropdownProvider) (*DropdownActionHook, error) {
	p, err := reg.dropdownPoint(point)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("dropdown action hook for %s requires a provider", point)
	}

	h := &DropdownActionHook{newPointHook(ext, p, provider)}
	ext.attach(h)
	return h, nil
}
