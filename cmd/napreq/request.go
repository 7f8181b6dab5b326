package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dungnh3/requestable/http_client"
	"github.com/dungnh3/requestable/library/nap"
)

func (f *flags) request(rawURL string) (http_client.Request, error) {
	encoding, err := parseEncoding(f.encoding, f.arrays, f.bools)
	if err != nil {
		return http_client.Request{}, err
	}
	params, err := parseParams(f.params)
	if err != nil {
		return http_client.Request{}, err
	}
	headers, err := parseHeaders(f.headers)
	if err != nil {
		return http_client.Request{}, err
	}
	return http_client.Request{
		URL:        rawURL,
		Verb:       f.method,
		Parameters: params,
		Headers:    headers,
		Encoding:   encoding,
	}, nil
}

func parseEncoding(destination, arrays, bools string) (nap.Encoding, error) {
	var enc nap.Encoding
	switch destination {
	case "", "default":
		enc.Destination = nap.DestinationMethodDependent
	case "query":
		enc.Destination = nap.DestinationQueryString
	case "body":
		enc.Destination = nap.DestinationHTTPBody
	case "json":
		enc.Destination = nap.DestinationJSONBody
	default:
		return enc, fmt.Errorf("unknown encoding %q", destination)
	}
	switch arrays {
	case "", "brackets":
		enc.Array = nap.ArrayBrackets
	case "nobrackets":
		enc.Array = nap.ArrayNoBrackets
	default:
		return enc, fmt.Errorf("unknown array encoding %q", arrays)
	}
	switch bools {
	case "", "numeric":
		enc.Bool = nap.BoolNumeric
	case "literal":
		enc.Bool = nap.BoolLiteral
	default:
		return enc, fmt.Errorf("unknown bool encoding %q", bools)
	}
	return enc, nil
}

// parseParams reads key=value pairs; a repeated key collects its values into a list.
func parseParams(pairs []string) (nap.Parameters, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(nap.Parameters, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", pair)
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []interface{}{existing, value}
		case []interface{}:
			params[key] = append(existing, value)
		}
	}
	return params, nil
}

func parseHeaders(lines []string) (http_client.Headers, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	headers := make(http_client.Headers, len(lines))
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("header %q is not 'Key: value'", line)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func render(v interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
