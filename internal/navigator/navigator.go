// Package navigator decides which screen a request renders. The current page
// travels in the query string so requests never share navigation state.
package navigator

import "net/url"

// Page identifies a screen.
type Page string

const (
	PageHome Page = "home"
	PageMVP  Page = "mvp"
)

// QueryKey is the query parameter carrying the page.
const QueryKey = "page"

// ParsePage reads the page from a query. Anything other than "mvp" is home.
func ParsePage(query url.Values) Page {
	if query.Get(QueryKey) == string(PageMVP) {
		return PageMVP
	}
	return PageHome
}

// Toggle returns the page the navigation button leads to.
func (p Page) Toggle() Page {
	if p == PageMVP {
		return PageHome
	}
	return PageMVP
}

// URL returns the link that renders p.
func (p Page) URL() string {
	return "/?" + url.Values{QueryKey: {string(p)}}.Encode()
}

func (p Page) String() string {
	return string(p)
}
