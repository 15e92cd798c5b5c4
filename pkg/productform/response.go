package productform

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"

	"github.com/goliatone/go-productform/pkg/fetchjson"
)

var responseJSON = jsoniter.Config{UseNumber: true}.Froze()

// rawResponse holds a save response body. Backends answer a write with the
// stored record, an array of records, an acknowledgement or nothing at all;
// only the id of a created product is read from it.
type rawResponse []byte

// UnmarshalJSON keeps the body as-is.
func (r *rawResponse) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// id returns the "id" of the response object, or of the first element of a
// response array, as a string. Numeric ids are formatted without exponent.
func (r rawResponse) id() string {
	if len(r) == 0 {
		return ""
	}
	var decoded any
	if err := responseJSON.Unmarshal(r, &decoded); err != nil {
		return ""
	}
	if list, ok := decoded.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		decoded = list[0]
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return ""
	}
	switch v := obj["id"].(type) {
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	default:
		id, err := cast.ToStringE(v)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(id)
	}
}

// acceptedResponse reports whether err only says a 2xx body could not be
// decoded. The write went through, so the save counts as successful.
func acceptedResponse(err error) bool {
	var fetchErr *fetchjson.Error
	if !errors.As(err, &fetchErr) {
		return false
	}
	return fetchErr.Status >= 200 && fetchErr.Status < 300
}
