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
	"encoding/json"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"gopkg.in/yaml.v3"
)

type widget struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func TestRegistry_Encode(t *testing.T) {
	registry := Default()
	value := widget{Name: "sprocket", Color: "red"}

	t.Run("json", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode("application/json; charset=utf-8", value)
		req.NoError(err)
		req.JSONEq(`{"name":"sprocket","color":"red"}`, string(data))
	})

	t.Run("cbor honors json tags", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode(CBOR, value)
		req.NoError(err)

		decoded := map[string]string{}
		req.NoError(cbor.Unmarshal(data, &decoded))
		req.Equal(map[string]string{"name": "sprocket", "color": "red"}, decoded)
	})

	t.Run("cbor is deterministic", func(t *testing.T) {
		req := require.New(t)
		first, err := registry.Encode(CBOR, map[string]int{"b": 2, "a": 1, "c": 3})
		req.NoError(err)
		second, err := registry.Encode(CBOR, map[string]int{"c": 3, "a": 1, "b": 2})
		req.NoError(err)
		req.Equal(first, second)
	})

	t.Run("msgpack honors json tags", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode(MsgPack, value)
		req.NoError(err)

		decoded := map[string]string{}
		req.NoError(msgpack.Unmarshal(data, &decoded))
		req.Equal("sprocket", decoded["name"])
	})

	t.Run("yaml", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode(YAML, map[string]string{"name": "sprocket"})
		req.NoError(err)

		decoded := map[string]string{}
		req.NoError(yaml.Unmarshal(data, &decoded))
		req.Equal("sprocket", decoded["name"])
	})

	t.Run("protobuf requires a message", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode(Protobuf, wrapperspb.String("sprocket"))
		req.NoError(err)

		decoded := &wrapperspb.StringValue{}
		req.NoError(proto.Unmarshal(data, decoded))
		req.Equal("sprocket", decoded.GetValue())

		_, err = registry.Encode(Protobuf, value)
		req.Error(err)
	})

	t.Run("text", func(t *testing.T) {
		req := require.New(t)
		data, err := registry.Encode(TextPlain, "sprocket")
		req.NoError(err)
		req.Equal("sprocket", string(data))

		data, err = registry.Encode(TextHTML, 42)
		req.NoError(err)
		req.Equal("42", string(data))
	})
}

func TestRegistry_Lookup(t *testing.T) {

	t.Run("structured syntax suffixes and text types fall back", func(t *testing.T) {
		req := require.New(t)
		registry := Default()

		data, err := registry.Encode("application/vnd.widget+json", widget{Name: "gear"})
		req.NoError(err)
		decoded := widget{}
		req.NoError(json.Unmarshal(data, &decoded))
		req.Equal("gear", decoded.Name)

		_, ok := registry.Lookup("application/vnd.widget+cbor")
		req.True(ok)

		data, err = registry.Encode("text/csv", "a,b")
		req.NoError(err)
		req.Equal("a,b", string(data))
	})

	t.Run("unknown media types have no encoder", func(t *testing.T) {
		req := require.New(t)
		_, err := Default().Encode("application/xml", widget{})
		req.True(errors.Is(err, ErrNoEncoder))

		_, ok := NewRegistry().Lookup(JSON)
		req.False(ok)
	})

	t.Run("registered encoders replace the defaults", func(t *testing.T) {
		req := require.New(t)
		registry := Default()
		registry.Register("Application/JSON", EncoderFunc(func(v interface{}) ([]byte, error) {
			return []byte("custom"), nil
		}))

		data, err := registry.Encode(JSON, widget{})
		req.NoError(err)
		req.Equal("custom", string(data))

		data, err = registry.Encode("application/problem+json", widget{})
		req.NoError(err)
		req.NotEqual("custom", string(data))
	})
}
