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

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openziti/xaction"
	"github.com/stretchr/testify/require"
)

func newTestWidgets(t *testing.T) *xaction.Registry {
	registry, err := newWidgetsRegistry(xaction.RegistryConfig{}, newWidgetStore())
	require.NoError(t, err)
	require.NoError(t, registry.Finalize())
	return registry
}

func request(registry *xaction.Registry, method, path, accept string, body string) *httptest.ResponseRecorder {
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, nil)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if accept != "" {
		request.Header.Set(xaction.AcceptHeader, accept)
	}
	recorder := httptest.NewRecorder()
	registry.ServeHTTP(recorder, request)
	return recorder
}

func TestWidgets(t *testing.T) {

	t.Run("widgets are listed in the preferred representation", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodGet, "/widgets", "application/json, text/plain;q=0.8", "")

		req := require.New(t)
		req.Equal(http.StatusOK, recorder.Code)
		req.Equal(contentTypeJSON, recorder.Header().Get(xaction.ContentTypeHeader))
		req.JSONEq(`[{"id":1,"name":"sprocket","color":"red"},{"id":2,"name":"gear","color":"blue"}]`, recorder.Body.String())

		recorder = request(registry, http.MethodGet, "/widgets?color=blue", "", "")
		req.Equal(contentTypeText, recorder.Header().Get(xaction.ContentTypeHeader))
		req.Equal("2\tgear\tblue\n", recorder.Body.String())
	})

	t.Run("html is served by a separate action with a preload hint", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodGet, "/widgets", "text/html", "")

		req := require.New(t)
		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("<ul><li>sprocket</li><li>gear</li></ul>", recorder.Body.String())
		req.Equal("</static/widgets.css>; rel=preload; as=style", recorder.Header().Get(xaction.LinkHeader))
	})

	t.Run("unacceptable requests list every public content type", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodGet, "/widgets", "text/xml", "")

		req := require.New(t)
		req.Equal(http.StatusNotAcceptable, recorder.Code)
		problem := &xaction.ProblemDetails{}
		req.NoError(json.Unmarshal(recorder.Body.Bytes(), problem))
		req.Equal([]string{contentTypeText, contentTypeJSON, contentTypeCBOR, contentTypeMP, contentTypeYAML, contentTypeHTML}, problem.ContentTypes)
	})

	t.Run("single widgets are found by id", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodGet, "/widgets/1", "", "")

		req := require.New(t)
		req.Equal(http.StatusOK, recorder.Code)
		req.JSONEq(`{"id":1,"name":"sprocket","color":"red"}`, recorder.Body.String())

		recorder = request(registry, http.MethodGet, "/widgets/2", contentTypeLD, "")
		req.Equal(contentTypeLD, recorder.Header().Get(xaction.ContentTypeHeader))
		req.JSONEq(`{"@id":"/widgets/2","@type":"Widget","name":"gear","color":"blue"}`, recorder.Body.String())

		req.Equal(http.StatusNotFound, request(registry, http.MethodGet, "/widgets/99", "", "").Code)
		req.Equal(http.StatusBadRequest, request(registry, http.MethodGet, "/widgets/abc", "", "").Code)
	})

	t.Run("widgets are created from json", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodPost, "/widgets", "", `{"name":"cog","color":"green"}`)

		req := require.New(t)
		req.Equal(http.StatusCreated, recorder.Code)
		req.JSONEq(`{"id":3,"name":"cog","color":"green"}`, recorder.Body.String())

		recorder = request(registry, http.MethodPost, "/widgets", "", `{"color":"green"}`)
		req.Equal(http.StatusBadRequest, recorder.Code)
		req.Equal("application/problem+json", recorder.Header().Get(xaction.ContentTypeHeader))
	})

	t.Run("admin stats require a token", func(t *testing.T) {
		registry := newTestWidgets(t)

		recorder := request(registry, http.MethodGet, "/admin/widgets/stats", "", "")

		req := require.New(t)
		req.Equal(http.StatusForbidden, recorder.Code)

		httpRequest := httptest.NewRequest(http.MethodGet, "/admin/widgets/stats", nil)
		httpRequest.Header.Set(adminTokenHeader, "secret")
		recorder = httptest.NewRecorder()
		registry.ServeHTTP(recorder, httpRequest)
		req.Equal(http.StatusOK, recorder.Code)
		req.JSONEq(`{"count":2}`, recorder.Body.String())

		// private actions are never advertised
		req.Equal(http.StatusNotFound, request(registry, http.MethodGet, "/admin/widgets/stats", "text/xml", "").Code)
	})
}

func Test_printRoutes(t *testing.T) {

	t.Run("the table lists every action", func(t *testing.T) {
		out := &bytes.Buffer{}

		err := printRoutes(out, newTestWidgets(t), "table")

		req := require.New(t)
		req.NoError(err)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		req.Len(lines, 6)
		req.Contains(lines[0], "CONTENT TYPES")
		req.Contains(lines[5], "widgets.stats")
		req.Contains(lines[5], "/admin/widgets/stats")
		req.Contains(lines[5], "private")
	})

	t.Run("structured formats are encoded by the codecs", func(t *testing.T) {
		out := &bytes.Buffer{}

		err := printRoutes(out, newTestWidgets(t), "json")

		req := require.New(t)
		req.NoError(err)
		var descriptions []xaction.ActionDescription
		req.NoError(json.Unmarshal(out.Bytes(), &descriptions))
		req.Len(descriptions, 5)
		req.Equal("/widgets/:value1", descriptions[2].NormalizedPath)
		req.Equal("Widget", descriptions[2].Handlers[0].Meta["schema"])
	})

	t.Run("unknown formats are rejected", func(t *testing.T) {
		err := printRoutes(&bytes.Buffer{}, newTestWidgets(t), "application/xml")

		req := require.New(t)
		req.Error(err)
	})
}
