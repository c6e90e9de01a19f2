package kurir

import (
	"errors"
	"testing"
)

func TestResponseIsSuccess(t *testing.T) {
	testCases := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{500, false},
	}
	for _, tc := range testCases {
		resp := &Response{StatusCode: tc.status}
		if got := resp.IsSuccess(); got != tc.want {
			t.Errorf("IsSuccess(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	resp := &Response{StatusCode: 200, Body: []byte(`{"name":"x","count":3}`), codec: JSONCodec{}}
	got, err := Decode[payload](resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "x" || got.Count != 3 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	_, err := Decode[map[string]any](&Response{StatusCode: 200})
	if !errors.Is(err, &RequestError{Kind: KindNoData}) {
		t.Errorf("error = %v, want KindNoData", err)
	}

	_, err = Decode[map[string]any](nil)
	if !errors.Is(err, &RequestError{Kind: KindNoData}) {
		t.Errorf("nil response error = %v, want KindNoData", err)
	}
}

func TestDecodeMalformedBody(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"name":`), codec: JSONCodec{}}
	_, err := Decode[map[string]any](resp)
	if !errors.Is(err, &RequestError{Kind: KindDecoding}) {
		t.Errorf("error = %v, want KindDecoding", err)
	}
}

func TestDecodeWithoutCodecDefaultsToJSON(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte(`{"ok":true}`)}
	got, err := Decode[map[string]bool](resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got["ok"] {
		t.Errorf("decoded = %v", got)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := JSONCodec{}
	data, err := codec.Marshal(map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]int
	if err := codec.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["n"] != 1 {
		t.Errorf("round trip = %v", out)
	}
}
