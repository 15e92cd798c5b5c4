// Package product defines the product record, its image entries and the
// category reference data exchanged with the REST backend.
package product

import "encoding/json"

// ImageEntry is one image attached to a product. Source is the original file
// name or a display label.
type ImageEntry struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Record mirrors the persisted product shape. ID is empty for records that
// have not been created yet.
type Record struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Subcategory string       `json:"subcategory"`
	Price       float64      `json:"price"`
	Discount    float64      `json:"discount"`
	Quantity    float64      `json:"quantity"`
	Status      int          `json:"status"`
	Images      []ImageEntry `json:"images"`
}

// MarshalJSON encodes Images as an empty array instead of null.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	out := alias(r)
	if out.Images == nil {
		out.Images = []ImageEntry{}
	}
	return json.Marshal(out)
}

// Clone returns a copy that does not share the image slice.
func (r Record) Clone() Record {
	out := r
	if r.Images != nil {
		out.Images = append([]ImageEntry(nil), r.Images...)
	}
	return out
}

// Status values accepted by the backend.
const (
	StatusInactive = 0
	StatusActive   = 1
)

// Subcategory is a selectable leaf of the category tree.
type Subcategory struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Category groups subcategories under a title.
type Category struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Subcategories []Subcategory `json:"subcategories"`
}

// CategoryTree is the ordered category reference data.
type CategoryTree []Category

// OptionCount returns the number of selectable subcategories across the tree.
func (t CategoryTree) OptionCount() int {
	total := 0
	for _, category := range t {
		total += len(category.Subcategories)
	}
	return total
}
