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

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// JSONEncoder encodes with encoding/json.
var JSONEncoder = EncoderFunc(json.Marshal)

// cborMode uses Core Deterministic Encoding (RFC 8949 section 4.2) so equal values always produce equal bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	options := cbor.CoreDetEncOptions()
	options.TextMarshaler = cbor.TextMarshalerTextString
	if cborMode, err = options.EncMode(); err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

// CBOREncoder encodes deterministic CBOR. Struct fields use their cbor, or else json, tags.
var CBOREncoder = EncoderFunc(func(v interface{}) ([]byte, error) {
	return cborMode.Marshal(v)
})

// MsgPackEncoder encodes MessagePack using json struct tags, so a body type declares its field names once.
var MsgPackEncoder = EncoderFunc(func(v interface{}) ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := msgpack.NewEncoder(buffer)
	encoder.SetCustomStructTag("json")
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
})

var YAMLEncoder = EncoderFunc(yaml.Marshal)

// ProtobufEncoder only accepts proto.Message values.
var ProtobufEncoder = EncoderFunc(func(v interface{}) ([]byte, error) {
	message, ok := v.(proto.Message)
	if !ok {
		return nil, errors.Errorf("%T is not a proto.Message", v)
	}
	return proto.Marshal(message)
})

// TextEncoder writes strings, byte slices and fmt.Stringer values verbatim and formats anything else with fmt.
var TextEncoder = EncoderFunc(func(v interface{}) ([]byte, error) {
	switch value := v.(type) {
	case string:
		return []byte(value), nil
	case []byte:
		return value, nil
	case fmt.Stringer:
		return []byte(value.String()), nil
	default:
		return []byte(fmt.Sprint(value)), nil
	}
})
