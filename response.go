package kurir

// Response wraps one completed attempt: status, flattened headers and the raw
// body. It is constructed once per attempt and not mutated afterwards.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte

	codec Codec
}

// IsSuccess reports whether the status is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into T using the client's codec.
// An empty body yields KindNoData, a codec failure KindDecoding.
func Decode[T any](resp *Response) (T, error) {
	var v T
	if resp == nil || len(resp.Body) == 0 {
		return v, &RequestError{Kind: KindNoData, Message: "response has no body"}
	}

	codec := resp.codec
	if codec == nil {
		codec = JSONCodec{}
	}
	if err := codec.Unmarshal(resp.Body, &v); err != nil {
		return v, &RequestError{Kind: KindDecoding, Message: "decode response body", Cause: err}
	}
	return v, nil
}
