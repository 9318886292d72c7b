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

import "strings"

// Scope declares actions under a common path prefix. Scopes share the Registry's lifecycle: once the Registry is
// finalized, declaring on a Scope panics like declaring on the Registry.
type Scope struct {
	HTTP
	path     string
	parent   *Scope
	registry *Registry
}

func newScope(registry *Registry, parent *Scope, path string) *Scope {
	scope := &Scope{
		path:     strings.TrimSuffix(path, "/"),
		parent:   parent,
		registry: registry,
	}
	scope.HTTP = HTTP{callable: scope}
	return scope
}

// Path returns the full prefix of the scope, including the prefixes of enclosing scopes.
func (scope *Scope) Path() string {
	return scope.path
}

func (scope *Scope) Parent() *Scope {
	return scope.parent
}

// Method declares an action whose template is the scope path followed by path.
func (scope *Scope) Method(method, name, path string) *ActionAuth {
	return scope.registry.declare(scope, method, name, scope.path+path)
}

// Scope creates a nested scope.
func (scope *Scope) Scope(path string) *Scope {
	return scope.registry.addScope(scope, scope.path+path)
}

// Actions returns the actions declared directly on this scope, in registration order.
func (scope *Scope) Actions() []*Action {
	var actions []*Action
	for _, action := range scope.registry.Actions() {
		if action.scope == scope {
			actions = append(actions, action)
		}
	}
	return actions
}
