package http_client

import (
	"encoding/json"
	"unicode/utf8"
)

// decodeObject and decodeArray treat malformed JSON and JSON of the wrong
// shape alike; callers only learn the body was not what they asked for.
// Invalid UTF-8 is malformed rather than replaced with U+FFFD.
func decodeObject(data []byte) (JSONObject, error) {
	var v interface{}
	if !utf8.Valid(data) {
		return nil, ErrInvalidJSONObject
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, ErrInvalidJSONObject
	}
	object, ok := v.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidJSONObject
	}
	return object, nil
}

func decodeArray(data []byte) (JSONArray, error) {
	var v interface{}
	if !utf8.Valid(data) {
		return nil, ErrInvalidJSONArray
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, ErrInvalidJSONArray
	}
	array, ok := v.([]interface{})
	if !ok {
		return nil, ErrInvalidJSONArray
	}
	return array, nil
}
