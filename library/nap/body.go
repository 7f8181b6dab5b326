package nap

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	goquery "github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

// BodyProvider provides Body content for http.Request attachment.
type BodyProvider interface {
	// ContentType returns the Content-Type of the body.
	ContentType() string
	// Body returns the io.Reader body.
	Body() (io.Reader, error)
}

// bodyProvider provides the wrapped body value as a Body for reqests.
type bodyProvider struct {
	body io.Reader
}

func (p bodyProvider) ContentType() string {
	return ""
}

func (p bodyProvider) Body() (io.Reader, error) {
	return p.body, nil
}

// jsonBodyProvider encodes a JSON tagged struct value as a Body for requests.
type jsonBodyProvider struct {
	payload interface{}
}

func (p jsonBodyProvider) ContentType() string {
	return ContentTypeJSON
}

func (p jsonBodyProvider) Body() (io.Reader, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(p.payload); err != nil {
		return nil, errors.Wrap(err, "encode json body")
	}
	return buf, nil
}

// formBodyProvider encodes a url tagged struct value as Body for requests.
type formBodyProvider struct {
	payload interface{}
}

func (p formBodyProvider) ContentType() string {
	return ContentTypeForm
}

func (p formBodyProvider) Body() (io.Reader, error) {
	values, err := goquery.Values(p.payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode form body")
	}
	return strings.NewReader(values.Encode()), nil
}

// parametersBodyProvider writes Parameters as a form or JSON body according to
// the Encoding it was built with.
type parametersBodyProvider struct {
	params   Parameters
	encoding Encoding
}

func (p parametersBodyProvider) ContentType() string {
	if p.encoding.Destination == DestinationJSONBody {
		return ContentTypeJSON
	}
	return ContentTypeFormUTF8
}

func (p parametersBodyProvider) Body() (io.Reader, error) {
	if p.encoding.Destination == DestinationJSONBody {
		raw, err := json.Marshal(p.params)
		if err != nil {
			return nil, errors.Wrap(err, "encode json parameters")
		}
		return bytes.NewReader(raw), nil
	}
	values, err := p.encoding.Values(p.params)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(values.Encode()), nil
}
