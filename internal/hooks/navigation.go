package hooks

import "errors"

// NavigationBarPoint lists entries shown in the top navigation bar.
const NavigationBarPoint = "navigation-bar"

// NavigationItem is one link in the navigation bar. URLName is resolved
// through the registry at render time and wins over URL.
type NavigationItem struct {
	Label   string
	URL     string
	URLName string
}

// NavigationBarHook adds links to the navigation bar.
type NavigationBarHook struct {
	*pointHook[[]NavigationItem]
}

// NewNavigationBarHook registers items into the navigation bar.
func NewNavigationBarHook(ext *Extension, reg *Registry, items []NavigationItem) (*NavigationBarHook, error) {
	for _, item := range items {
		if item.Label == "" {
			return nil, errors.New("navigation bar entries require a label")
		}
		if item.URL == "" && item.URLName == "" {
			return nil, errors.New("navigation bar entries require a url or url_name")
		}
	}
	copied := append([]NavigationItem(nil), items...)

	h := &NavigationBarHook{newPointHook(ext, reg.NavigationBar, copied)}
	ext.attach(h)
	return h, nil
}
