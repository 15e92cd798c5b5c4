package productform

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-productform/pkg/formdom"
)

// Markers and control names the markup builder emits.
const (
	markerForm               = "productForm"
	markerDescription        = "productDescription"
	markerImageSection       = "sortable-list-container"
	markerImageListContainer = "imageListContainer"

	FieldTitle       = "title"
	FieldDescription = "description"
	FieldSubcategory = "subcategory"
	FieldPrice       = "price"
	FieldDiscount    = "discount"
	FieldQuantity    = "quantity"
	FieldStatus      = "status"
	FieldURL         = "url"
	FieldSource      = "source"

	controlUpload = "uploadImage"
	controlSave   = "save"
)

// ScalarFields lists the record fields backed by a single control, in
// population order.
var ScalarFields = []string{
	FieldTitle,
	FieldDescription,
	FieldSubcategory,
	FieldPrice,
	FieldDiscount,
	FieldQuantity,
	FieldStatus,
}

// Elements is the lookup table built once per render.
type Elements struct {
	Root               *html.Node
	Form               *html.Node
	ImageSection       *html.Node
	ImageListContainer *html.Node

	Title       *html.Node
	Description *html.Node
	Subcategory *html.Node
	Price       *html.Node
	Discount    *html.Node
	Quantity    *html.Node
	Status      *html.Node
	UploadImage *html.Node
	Save        *html.Node

	tagged   map[string]*html.Node
	controls map[string]*html.Node
}

// Tagged returns the node carrying data-element="name".
func (e *Elements) Tagged(name string) *html.Node {
	if e == nil {
		return nil
	}
	return e.tagged[name]
}

// Control returns the first form control named name.
func (e *Elements) Control(name string) *html.Node {
	if e == nil {
		return nil
	}
	return e.controls[name]
}

// collectElements walks root once, recording tagged nodes and named controls.
// Controls inside image list items are skipped since they repeat per item.
func collectElements(root *html.Node) (*Elements, error) {
	e := &Elements{
		Root:     root,
		tagged:   make(map[string]*html.Node),
		controls: make(map[string]*html.Node),
	}
	formdom.Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if key, ok := formdom.Attr(n, formdom.ElementMarker); ok && key != "" {
			e.tagged[key] = n
		}
		if formdom.HasClass(n, imageItemClass) {
			return false
		}
		if formdom.IsControl(n) {
			if name, ok := formdom.Attr(n, "name"); ok && name != "" {
				if _, seen := e.controls[name]; !seen {
					e.controls[name] = n
				}
			}
		}
		return true
	})

	e.Form = e.tagged[markerForm]
	e.ImageSection = e.tagged[markerImageSection]
	e.ImageListContainer = e.tagged[markerImageListContainer]
	e.Title = e.controls[FieldTitle]
	e.Description = e.controls[FieldDescription]
	e.Subcategory = e.controls[FieldSubcategory]
	e.Price = e.controls[FieldPrice]
	e.Discount = e.controls[FieldDiscount]
	e.Quantity = e.controls[FieldQuantity]
	e.Status = e.controls[FieldStatus]
	e.UploadImage = e.controls[controlUpload]
	e.Save = e.controls[controlSave]

	required := map[string]*html.Node{
		markerForm:               e.Form,
		markerImageListContainer: e.ImageListContainer,
		FieldTitle:               e.Title,
		FieldDescription:         e.Description,
		FieldSubcategory:         e.Subcategory,
		FieldPrice:               e.Price,
		FieldDiscount:            e.Discount,
		FieldQuantity:            e.Quantity,
		FieldStatus:              e.Status,
		controlUpload:            e.UploadImage,
	}
	for name, node := range required {
		if node == nil {
			return nil, fmt.Errorf("productform: markup has no %q element", name)
		}
	}
	return e, nil
}
