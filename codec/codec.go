/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

/*
Package codec converts the structured bodies produced by xaction handlers into bytes for the negotiated content type.
*/
package codec

import (
	"mime"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Encoder serializes a value for one media type.
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(v interface{}) ([]byte, error)

func (f EncoderFunc) Encode(v interface{}) ([]byte, error) {
	return f(v)
}

const (
	JSON        = "application/json"
	LDJSON      = "application/ld+json"
	ProblemJSON = "application/problem+json"
	CBOR        = "application/cbor"
	MsgPack     = "application/msgpack"
	YAML        = "application/yaml"
	Protobuf    = "application/x-protobuf"
	TextPlain   = "text/plain"
	TextHTML    = "text/html"

	jsonSuffix = "+json"
	cborSuffix = "+cbor"
	textPrefix = "text/"
)

// ErrNoEncoder is returned by Registry.Encode when no encoder is registered for, or can be derived for, a content
// type.
var ErrNoEncoder = errors.New("no encoder registered")

// Registry maps media types to Encoders. Structured syntax suffixes (+json, +cbor) and text/* types fall back to
// the encoders registered for application/json, application/cbor and text/plain respectively.
type Registry struct {
	lock     sync.RWMutex
	encoders map[string]Encoder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		encoders: map[string]Encoder{},
	}
}

// Default returns a Registry with every encoder of this package registered.
func Default() *Registry {
	registry := NewRegistry()
	registry.Register(JSON, JSONEncoder)
	registry.Register(LDJSON, JSONEncoder)
	registry.Register(ProblemJSON, JSONEncoder)
	registry.Register(CBOR, CBOREncoder)
	registry.Register(MsgPack, MsgPackEncoder)
	registry.Register(YAML, YAMLEncoder)
	registry.Register(Protobuf, ProtobufEncoder)
	registry.Register(TextPlain, TextEncoder)
	registry.Register(TextHTML, TextEncoder)
	return registry
}

// Register adds or replaces the encoder for a media type. Parameters are ignored.
func (registry *Registry) Register(contentType string, encoder Encoder) {
	mediaType := normalize(contentType)
	logrus.Debugf("registering codec for media type: %v", mediaType)

	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.encoders[mediaType] = encoder
}

// Lookup returns the encoder for a content type, applying the suffix and text/* fallbacks.
func (registry *Registry) Lookup(contentType string) (Encoder, bool) {
	mediaType := normalize(contentType)

	registry.lock.RLock()
	defer registry.lock.RUnlock()

	if encoder, ok := registry.encoders[mediaType]; ok {
		return encoder, true
	}

	var fallback string
	switch {
	case strings.HasSuffix(mediaType, jsonSuffix):
		fallback = JSON
	case strings.HasSuffix(mediaType, cborSuffix):
		fallback = CBOR
	case strings.HasPrefix(mediaType, textPrefix):
		fallback = TextPlain
	default:
		return nil, false
	}

	encoder, ok := registry.encoders[fallback]
	return encoder, ok
}

// Encode serializes v for contentType.
func (registry *Registry) Encode(contentType string, v interface{}) ([]byte, error) {
	encoder, ok := registry.Lookup(contentType)
	if !ok {
		return nil, errors.Wrapf(ErrNoEncoder, "content type [%s]", contentType)
	}

	data, err := encoder.Encode(v)
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode %T as [%s]", v, contentType)
	}
	return data, nil
}

func normalize(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	if semicolon := strings.IndexByte(contentType, ';'); semicolon >= 0 {
		contentType = contentType[:semicolon]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
