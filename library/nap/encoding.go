package nap

import (
	"encoding"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	goquery "github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// Parameters are request parameters placed in the query string or the body
// depending on the Encoding. Values may be scalars, maps, slices or url tagged structs.
type Parameters map[string]interface{}

// Destination tells where encoded Parameters go.
type Destination int

const (
	// DestinationMethodDependent puts parameters in the query string for GET, HEAD
	// and DELETE and in a form body for everything else.
	DestinationMethodDependent Destination = iota
	// DestinationQueryString always uses the query string.
	DestinationQueryString
	// DestinationHTTPBody always uses a form-urlencoded body.
	DestinationHTTPBody
	// DestinationJSONBody uses a JSON body for verbs that carry one and the
	// query string for GET, HEAD and DELETE, so those verbs never get a body.
	DestinationJSONBody
)

// ArrayEncoding controls how slice values are keyed.
type ArrayEncoding int

const (
	// ArrayBrackets encodes key[]=a&key[]=b
	ArrayBrackets ArrayEncoding = iota
	// ArrayNoBrackets encodes key=a&key=b
	ArrayNoBrackets
)

func (a ArrayEncoding) key(key string) string {
	if a == ArrayNoBrackets {
		return key
	}
	return key + "[]"
}

// BoolEncoding controls how bool values are written.
type BoolEncoding int

const (
	// BoolNumeric encodes true as 1 and false as 0
	BoolNumeric BoolEncoding = iota
	// BoolLiteral encodes true and false
	BoolLiteral
)

func (b BoolEncoding) value(v bool) string {
	if b == BoolLiteral {
		return fmt.Sprint(v)
	}
	if v {
		return "1"
	}
	return "0"
}

// Encoding is the parameter encoding strategy of a request.
type Encoding struct {
	Destination Destination
	Array       ArrayEncoding
	Bool        BoolEncoding
}

// Predefined encodings
var (
	EncodingMethodDependent = Encoding{Destination: DestinationMethodDependent}
	EncodingQueryString     = Encoding{Destination: DestinationQueryString}
	EncodingHTTPBody        = Encoding{Destination: DestinationHTTPBody}
	EncodingJSON            = Encoding{Destination: DestinationJSONBody}
)

// inQuery reports whether parameters of a request with the given method belong to the URL.
func (e Encoding) inQuery(method string) bool {
	switch e.Destination {
	case DestinationQueryString:
		return true
	case DestinationHTTPBody:
		return false
	default:
		switch strings.ToUpper(method) {
		case MethodGet, MethodHead, MethodDelete:
			return true
		}
		return false
	}
}

// Values flattens params into url.Values. Nested maps become key[sub], slices
// become key[] (or key with ArrayNoBrackets), url tagged structs are expanded
// with go-querystring under their key.
func (e Encoding) Values(params Parameters) (url.Values, error) {
	values := make(url.Values)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := e.appendComponents(values, k, params[k]); err != nil {
			return nil, err
		}
	}
	return values, nil
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func (e Encoding) appendComponents(values url.Values, key string, value interface{}) error {
	switch v := value.(type) {
	case nil:
		values.Add(key, "")
		return nil
	case string:
		values.Add(key, v)
		return nil
	case bool:
		values.Add(key, e.Bool.value(v))
		return nil
	case json.Number:
		values.Add(key, v.String())
		return nil
	case time.Time:
		values.Add(key, v.Format(time.RFC3339))
		return nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return errors.Wrapf(err, "encode parameter %q", key)
		}
		values.Add(key, string(text))
		return nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			values.Add(key, "")
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return errors.Errorf("encode parameter %q: map key must be string, got %s", key, rv.Type().Key())
		}
		nested := make([]string, 0, rv.Len())
		for _, mk := range rv.MapKeys() {
			nested = append(nested, mk.String())
		}
		sort.Strings(nested)
		for _, nk := range nested {
			item := rv.MapIndex(reflect.ValueOf(nk).Convert(rv.Type().Key()))
			if err := e.appendComponents(values, key+"["+nk+"]", item.Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			values.Add(key, string(rv.Bytes()))
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			if err := e.appendComponents(values, e.Array.key(key), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Bool:
		values.Add(key, e.Bool.value(rv.Bool()))
		return nil
	case reflect.Struct:
		if rv.Type() == timeType || rv.Type().Implements(textMarshalerType) {
			return e.appendComponents(values, key, rv.Interface())
		}
		structValues, err := goquery.Values(rv.Interface())
		if err != nil {
			return errors.Wrapf(err, "encode parameter %q", key)
		}
		for sk, vs := range structValues {
			for _, v := range vs {
				values.Add(nestKey(key, sk), v)
			}
		}
		return nil
	default:
		values.Add(key, fmt.Sprint(rv.Interface()))
		return nil
	}
}

// nestKey puts sub (which may itself be "a[b]") under key: key[a][b].
func nestKey(key, sub string) string {
	if i := strings.IndexByte(sub, '['); i >= 0 {
		return key + "[" + sub[:i] + "]" + sub[i:]
	}
	return key + "[" + sub + "]"
}
