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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatchIndex(t *testing.T) {

	t.Run("groups are ordered by first path then first method", func(t *testing.T) {
		req := require.New(t)
		registry := newFinalizedRegistry(t, func(registry *Registry) {
			registry.Get("users.list", "/users").Public().Handle("application/json", noop)
			registry.Get("users.get", "/users/{id}").Public().Handle("application/json", noop)
			registry.Post("users.create", "/users").Public().Handle("application/json", noop)
			registry.Get("users.get.text", "/users/:userId").Public().Handle("text/plain", noop)
		})

		var shapes []string
		for _, group := range registry.Index().Groups() {
			shapes = append(shapes, group.Method()+" "+group.NormalizedPath())
		}
		req.Equal([]string{"GET /users", "POST /users", "GET /users/:value1"}, shapes)
	})

	t.Run("earlier groups shadow later ones", func(t *testing.T) {
		req := require.New(t)
		registry := newFinalizedRegistry(t, func(registry *Registry) {
			registry.Get("users.me", "/users/me").Public().Handle("application/json", noop)
			registry.Get("users.get", "/users/{id}").Public().Handle("application/json", noop)
		})

		accept := NewAcceptContext("", "", "")
		req.Equal("users.me", registry.Index().Match("GET", "/users/me", accept).Action.Name())
		req.Equal("users.get", registry.Index().Match("GET", "/users/you", accept).Action.Name())

		registry = newFinalizedRegistry(t, func(registry *Registry) {
			registry.Get("users.get", "/users/{id}").Public().Handle("application/json", noop)
			registry.Get("users.me", "/users/me").Public().Handle("application/json", noop)
		})
		req.Equal("users.get", registry.Index().Match("GET", "/users/me", accept).Action.Name())
	})

	t.Run("a not acceptable result ends the scan", func(t *testing.T) {
		req := require.New(t)
		registry := newFinalizedRegistry(t, func(registry *Registry) {
			registry.Get("users.me", "/users/me").Public().Handle("text/plain", noop)
			registry.Get("users.get", "/users/{id}").Public().Handle("application/json", noop)
		})

		result := registry.Index().Match("GET", "/users/me", NewAcceptContext("application/json", "", ""))
		req.Equal(MatchUnsupportedContentType, result.Kind)
		req.Equal([]string{"text/plain"}, result.ContentTypes)
	})

	t.Run("no group matching returns nil", func(t *testing.T) {
		req := require.New(t)
		registry := newFinalizedRegistry(t, func(registry *Registry) {
			registry.Get("users.list", "/users").Public().Handle("application/json", noop)
		})

		req.Nil(registry.Index().Match("GET", "/accounts", NewAcceptContext("", "", "")))
		req.Nil(registry.Index().Match("DELETE", "/users", NewAcceptContext("", "", "")))
	})
}
