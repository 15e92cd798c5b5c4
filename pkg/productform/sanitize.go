package productform

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	imageItemPolicyOnce sync.Once
	imageItemPolicy     *bluemonday.Policy
)

// itemPolicy allows exactly the structure image list items are built from.
func itemPolicy() *bluemonday.Policy {
	imageItemPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowImages()
		p.AllowRelativeURLs(true)
		p.AllowURLSchemes("http", "https")
		p.AllowElements("li", "span", "button", "input")
		p.AllowAttrs("class").Globally()
		p.AllowAttrs("type", "name", "value").OnElements("input")
		p.AllowAttrs("type").OnElements("button")
		p.AllowAttrs("alt", "data-grab-handle", "data-delete-handle").OnElements("img")
		imageItemPolicy = p
	})
	return imageItemPolicy
}

func sanitizeItems(markup string) string {
	return itemPolicy().Sanitize(markup)
}
