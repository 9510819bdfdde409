package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Content types set by the body helpers.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// payload is a logical request body that is serialized on demand.
type payload struct {
	contentType string
	encode      func() ([]byte, error)
}

func rawPayload(data []byte, contentType string) *payload {
	owned := bytes.Clone(data)
	return &payload{
		contentType: contentType,
		encode:      func() ([]byte, error) { return bytes.Clone(owned), nil },
	}
}

func jsonPayload(v any) *payload {
	return &payload{
		contentType: ContentTypeJSON,
		encode: func() ([]byte, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode JSON body: %w", err)
			}
			return data, nil
		},
	}
}

func formPayload(values url.Values) *payload {
	owned := cloneValues(values)
	return &payload{
		contentType: ContentTypeForm,
		encode:      func() ([]byte, error) { return []byte(owned.Encode()), nil },
	}
}

// attachBody sets data as the request body, replayable through GetBody.
func attachBody(req *http.Request, data []byte) {
	if len(data) == 0 {
		req.Body = http.NoBody
		req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
		req.ContentLength = 0
		return
	}

	req.ContentLength = int64(len(data))
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
