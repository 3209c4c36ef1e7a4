package browser

// PageMap is the analyzed structure of a live page, handed to the planner
type PageMap struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Elements   []Element `json:"elements"`
	Navigation []NavItem `json:"navigation"`
}

// Element is an interactive element usable as an action locator
type Element struct {
	Selector    string `json:"selector"`
	Type        string `json:"type"` // button, input type, link, select
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
}

// NavItem is a navigation link
type NavItem struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Href     string `json:"href"`
}

// Selectors returns the locators of every element, in page order
func (m *PageMap) Selectors() []string {
	out := make([]string, 0, len(m.Elements))
	for _, el := range m.Elements {
		out = append(out, el.Selector)
	}
	return out
}
