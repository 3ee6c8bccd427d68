package machines

import (
	"encoding/json"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/tidwall/gjson"
)

// Response is a control-plane JSON body. Fields are read lazily with
// gjson paths.
type Response struct {
	raw []byte
}

// NewResponse wraps raw JSON. Used by tests and by callers holding a body
// obtained elsewhere.
func NewResponse(raw []byte) Response { return Response{raw: raw} }

// Raw returns the body as received.
func (r Response) Raw() []byte { return r.raw }

// Get returns the value at path.
func (r Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// String returns the string at path. A missing or non-string value is a
// *ResponseError.
func (r Response) String(path string) (string, error) {
	v := r.Get(path)
	if v.Type != gjson.String {
		return "", &builderr.ResponseError{Field: path, Reason: "is missing or not a string"}
	}

	return v.Str, nil
}

// Decode unmarshals the whole body into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.raw, v); err != nil {
		return &builderr.ResponseError{Reason: err.Error()}
	}

	return nil
}

// Value returns the body as generic JSON, or nil when empty.
func (r Response) Value() any {
	if len(r.raw) == 0 {
		return nil
	}

	return gjson.ParseBytes(r.raw).Value()
}
