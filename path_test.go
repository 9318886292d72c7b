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
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {

	t.Run("variable names are erased", func(t *testing.T) {
		req := require.New(t)
		req.Equal("/users/:value1", NormalizePath("/users/{id}"))
		req.Equal(NormalizePath("/users/{id}"), NormalizePath("/users/{userId}"))
		req.Equal(NormalizePath("/users/{id}"), NormalizePath("/users/:userId"))
	})

	t.Run("nested shapes do not collide", func(t *testing.T) {
		req := require.New(t)
		req.Equal("/users/:value1/x", NormalizePath("/users/{id}/x"))
		req.NotEqual(NormalizePath("/users/{id}"), NormalizePath("/users/{id}/x"))
	})

	t.Run("placeholders are numbered in order", func(t *testing.T) {
		req := require.New(t)
		req.Equal("/a/:value1/b/:value2.:value3", NormalizePath("/a/{x}/b/{name}.{ext}"))
	})

	t.Run("query and fragment groups do not contribute to the shape", func(t *testing.T) {
		req := require.New(t)
		req.Equal("/widgets", NormalizePath("/widgets{?color,size}"))
		req.Equal("/widgets", NormalizePath("/widgets{?color}{&page}{#section}"))
		req.Equal(NormalizePath("/widgets{?color}"), NormalizePath("/widgets{?size}"))
	})

	t.Run("invalid templates are returned unchanged", func(t *testing.T) {
		req := require.New(t)
		req.Equal("/broken/{id", NormalizePath("/broken/{id"))
	})
}

func TestNewPathTemplate(t *testing.T) {

	t.Run("keys are recorded per location", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/users/{id}/posts/:postId{?sort,page}{#comments}")
		req.NoError(err)
		req.Equal([]string{"id", "postId"}, pathTemplate.ParamKeys())
		req.Equal([]string{"sort", "page"}, pathTemplate.QueryKeys())
		req.Equal([]string{"comments"}, pathTemplate.FragmentKeys())
		req.Equal(LocationPath, pathTemplate.LocationOf("id"))
		req.Equal(LocationQuery, pathTemplate.LocationOf("page"))
		req.Equal(LocationFragment, pathTemplate.LocationOf("comments"))
		req.Equal(LocationNone, pathTemplate.LocationOf("missing"))
		req.Equal("/users/:value1/posts/:value2", pathTemplate.Normalized())
	})

	t.Run("malformed templates are rejected", func(t *testing.T) {
		for _, template := range []string{
			"users/{id}",
			"/users/{id",
			"/users/id}",
			"/users/{}",
			"/users/{a{b}}",
			"/users/{id}/{id}",
			"/users{?q}/{id}",
			"/users/x{id}",
			"/users/{i d}",
			"/v1/things/{name}:cancel",
			"/v1/things/:name:cancel",
			"/files/{name}-v2",
			"/files/report.:draft",
		} {
			_, err := NewPathTemplate(template)
			require.Error(t, err, template)
		}
	})

	t.Run("explode and prefix modifiers are ignored", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/files/{path*}/{name:3}")
		req.NoError(err)
		req.Equal([]string{"path", "name"}, pathTemplate.ParamKeys())
	})
}

func TestPathTemplate_Match(t *testing.T) {

	t.Run("path variables are bound under the template's names", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/users/{userId}/posts/{postId}")
		req.NoError(err)

		values, ok := pathTemplate.Match("/users/42/posts/7")
		req.True(ok)
		req.Equal(map[string]string{"userId": "42", "postId": "7"}, values)
	})

	t.Run("escaped values are unescaped", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/tags/{tag}")
		req.NoError(err)

		values, ok := pathTemplate.Match("/tags/a%20b")
		req.True(ok)
		req.Equal("a b", values["tag"])
	})

	t.Run("multi-name expressions split on commas", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/map/{x,y}")
		req.NoError(err)

		values, ok := pathTemplate.Match("/map/3,4")
		req.True(ok)
		req.Equal(map[string]string{"x": "3", "y": "4"}, values)
	})

	t.Run("extensions are matched after a dot", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/files/{name}.{ext}")
		req.NoError(err)

		values, ok := pathTemplate.Match("/files/report.pdf")
		req.True(ok)
		req.Equal("report", values["name"])
		req.Equal("pdf", values["ext"])
	})

	t.Run("a colon that does not start a variable is literal", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/v1/things:batch")
		req.NoError(err)
		req.Equal("/v1/things:batch", pathTemplate.Normalized())

		_, ok := pathTemplate.Match("/v1/things:batch")
		req.True(ok)
		_, ok = pathTemplate.Match("/v1/things:delete")
		req.False(ok)
	})

	t.Run("other shapes do not match", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/users/{id}")
		req.NoError(err)

		_, ok := pathTemplate.Match("/users/42/x")
		req.False(ok)
		_, ok = pathTemplate.Match("/users/")
		req.False(ok)
		_, ok = pathTemplate.Match("/accounts/42")
		req.False(ok)
	})

	t.Run("query values are filtered to declared keys", func(t *testing.T) {
		req := require.New(t)
		pathTemplate, err := NewPathTemplate("/widgets{?color}")
		req.NoError(err)

		query := url.Values{"color": {"red"}, "size": {"xl"}}
		req.Equal(map[string][]string{"color": {"red"}}, pathTemplate.QueryValues(query))
	})
}
