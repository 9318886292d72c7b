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

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openziti/xaction"
	"github.com/stretchr/testify/require"
)

// newTextRegistry returns a finalized registry answering GET on each path with the binding name
func newTextRegistry(t *testing.T, binding string, paths ...string) *xaction.Registry {
	registry, err := xaction.NewRegistry(xaction.RegistryConfig{})
	require.NoError(t, err)

	for _, path := range paths {
		registry.Get(binding+path, path).Public().Handle("text/plain", func(ctx *xaction.Context) error {
			handler := ApiHandlerFromRequestContext(ctx.Context())
			if handler == nil {
				ctx.Body = binding
			} else {
				ctx.Body = handler.Binding
			}
			return nil
		})
	}

	require.NoError(t, registry.Finalize())
	return registry
}

func Test_getDefault(t *testing.T) {

	t.Run("a nil slice results in an error", func(t *testing.T) {
		var handlers []*ApiHandler = nil

		defaultHandler, err := getDefault(handlers)

		req := require.New(t)
		req.Error(err)
		req.Nil(defaultHandler)
	})

	t.Run("a slice with one non-defaulting entry returns that entry", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1"}

		defaultHandler, err := getDefault([]*ApiHandler{h1})

		req := require.New(t)
		req.NoError(err)
		req.Same(h1, defaultHandler)
	})

	t.Run("a slice with one defaulting entry returns that entry", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1", IsDefault: true}

		defaultHandler, err := getDefault([]*ApiHandler{h1})

		req := require.New(t)
		req.NoError(err)
		req.Same(h1, defaultHandler)
	})

	t.Run("a slice with multiple non-defaulting entries returns the last entry", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1"}
		h2 := &ApiHandler{Binding: "h2"}
		h3 := &ApiHandler{Binding: "h3"}

		defaultHandler, err := getDefault([]*ApiHandler{h1, h2, h3})

		req := require.New(t)
		req.NoError(err)
		req.Same(h3, defaultHandler)
	})

	t.Run("a slice with multiple defaulting entries returns an error", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1"}
		h2 := &ApiHandler{Binding: "h2", IsDefault: true}
		h3 := &ApiHandler{Binding: "h3", IsDefault: true}

		defaultHandler, err := getDefault([]*ApiHandler{h1, h2, h3})

		req := require.New(t)
		req.Error(err)
		req.Contains(err.Error(), "[Binding: h2],[Binding: h3]")
		req.Nil(defaultHandler)
	})

	t.Run("a slice with multiple entries and one defaulting entry returns the defaulting entry", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1"}
		h2 := &ApiHandler{Binding: "h2", IsDefault: true}
		h3 := &ApiHandler{Binding: "h3"}

		defaultHandler, err := getDefault([]*ApiHandler{h1, h2, h3})

		req := require.New(t)
		req.NoError(err)
		req.Same(h2, defaultHandler)
	})
}

func TestPathPrefixDemux(t *testing.T) {

	t.Run("the longest root path wins", func(t *testing.T) {
		root := &ApiHandler{Binding: "root", RootPath: "/", IsDefault: true, Registry: newTextRegistry(t, "root", "/api/status")}
		api := &ApiHandler{Binding: "api", RootPath: "/api", Registry: newTextRegistry(t, "api", "/api/status")}

		demux, err := NewPathPrefixDemux([]*ApiHandler{root, api})

		req := require.New(t)
		req.NoError(err)

		recorder := httptest.NewRecorder()
		demux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("api", recorder.Body.String())
	})

	t.Run("unmatched requests go to the default handler", func(t *testing.T) {
		admin := &ApiHandler{Binding: "admin", RootPath: "/admin", Registry: newTextRegistry(t, "admin", "/admin/stats")}
		edge := &ApiHandler{Binding: "edge", RootPath: "/edge", IsDefault: true, Registry: newTextRegistry(t, "edge", "/health")}

		demux, err := NewPathPrefixDemux([]*ApiHandler{admin, edge})

		req := require.New(t)
		req.NoError(err)

		recorder := httptest.NewRecorder()
		demux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
		req.Equal(http.StatusOK, recorder.Code)
		req.Equal("edge", recorder.Body.String())

		recorder = httptest.NewRecorder()
		demux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/missing", nil))
		req.Equal(http.StatusNotFound, recorder.Code)
	})

	t.Run("duplicate root paths result in an error", func(t *testing.T) {
		h1 := &ApiHandler{Binding: "h1", RootPath: "/api"}
		h2 := &ApiHandler{Binding: "h2", RootPath: "/api"}

		demux, err := NewPathPrefixDemux([]*ApiHandler{h1, h2})

		req := require.New(t)
		req.Error(err)
		req.Nil(demux)
	})
}
