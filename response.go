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

package xaction

import (
	"io"
	"net/http"
	"strconv"

	"github.com/openziti/xaction/codec"
	"github.com/pkg/errors"
)

// ProblemDetails is an RFC 9457 problem body. The Registry uses it for 406 and 500 responses; the 406 variant
// lists the content types the matched path could have served.
type ProblemDetails struct {
	Type         string   `json:"type" yaml:"type"`
	Title        string   `json:"title" yaml:"title"`
	Status       int      `json:"status" yaml:"status"`
	Detail       string   `json:"detail,omitempty" yaml:"detail,omitempty"`
	Instance     string   `json:"instance,omitempty" yaml:"instance,omitempty"`
	ContentTypes []string `json:"contentTypes,omitempty" yaml:"contentTypes,omitempty"`
}

func newProblem(status int, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Instance: instance,
	}
}

// Response is the transport-neutral result of Registry.HandleRequest. Body is an io.Reader, a []byte, a string,
// or a structured value encoded by a codec.Registry according to the Content-Type header.
type Response struct {
	Status int
	Header http.Header
	Body   interface{}
}

func newResponse(status int) *Response {
	return &Response{
		Status: status,
		Header: http.Header{},
	}
}

// Write sends the response. HEAD requests receive the headers and status only. Structured bodies are encoded
// before anything is written, so an encoding failure is returned with the ResponseWriter still untouched.
func (response *Response) Write(writer http.ResponseWriter, request *http.Request, codecs *codec.Registry) error {
	var data []byte
	var reader io.Reader

	switch body := response.Body.(type) {
	case nil:
	case io.Reader:
		reader = body
	case []byte:
		data = body
	case string:
		data = []byte(body)
	default:
		if codecs == nil {
			return errors.Errorf("no codecs available to encode body of type %T", body)
		}
		encoded, err := codecs.Encode(response.Header.Get(ContentTypeHeader), body)
		if err != nil {
			return err
		}
		data = encoded
	}

	header := writer.Header()
	for key, values := range response.Header {
		header[key] = values
	}

	if reader == nil && data != nil && header.Get("Content-Length") == "" {
		header.Set("Content-Length", strconv.Itoa(len(data)))
	}

	status := response.Status
	if status == 0 {
		status = http.StatusOK
	}
	writer.WriteHeader(status)

	if request != nil && request.Method == http.MethodHead {
		if closer, ok := reader.(io.Closer); ok {
			_ = closer.Close()
		}
		return nil
	}

	if reader != nil {
		if closer, ok := reader.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
		_, err := io.Copy(writer, reader)
		return err
	}

	if len(data) > 0 {
		_, err := writer.Write(data)
		return err
	}

	return nil
}
