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
	"strings"
)

// HandlerFunc produces the representation of an Action for one content type. Handlers mutate the Context's
// Status, Header and Body. A returned error is reported once by the Registry and answered with a 500.
type HandlerFunc func(ctx *Context) error

// Handler is a single entry of an Action's handler table.
type Handler struct {
	ContentType string
	Func        HandlerFunc
	Meta        map[string]string
	Action      *Action
}

// Action binds a method, a name and a URI template to an ordered table of content type specific handlers. Actions
// are assembled by the builders returned from Registry.Method and must be treated as read-only once
// Registry.Finalize has run.
type Action struct {
	method   string
	name     string
	path     *PathTemplate
	public   bool
	hints    []Hint
	scope    *Scope
	registry *Registry

	handlers    []*Handler
	handlerMap  map[string]*Handler
	acceptCache map[string]struct{}
}

func newAction(registry *Registry, scope *Scope, method, name string, path *PathTemplate) *Action {
	return &Action{
		method:     strings.ToUpper(method),
		name:       name,
		path:       path,
		scope:      scope,
		registry:   registry,
		handlerMap: map[string]*Handler{},
	}
}

// Method returns the upper-cased HTTP method.
func (action *Action) Method() string {
	return action.method
}

// Name returns the unique name of the action.
func (action *Action) Name() string {
	return action.name
}

// Template returns the URI template as declared (including any scope prefix).
func (action *Action) Template() string {
	return action.path.Template()
}

// Path returns the parsed URI template.
func (action *Action) Path() *PathTemplate {
	return action.path
}

// Public reports whether the action allows public access. The dispatcher only branches on this, it never
// enforces it.
func (action *Action) Public() bool {
	return action.public
}

// Hints returns the preload/link hints attached to the action.
func (action *Action) Hints() []Hint {
	return action.hints
}

// Scope returns the Scope the action was declared in, nil for actions declared on the Registry directly.
func (action *Action) Scope() *Scope {
	return action.scope
}

// Registry returns the owning Registry.
func (action *Action) Registry() *Registry {
	return action.registry
}

// URL returns the absolute IRI template of the action: the registry root IRI joined with the template.
func (action *Action) URL() string {
	return strings.TrimSuffix(action.registry.rootIRI, "/") + action.Template()
}

// Handlers returns the handler table in declaration order.
func (action *Action) Handlers() []*Handler {
	return action.handlers
}

// Handler returns the handler declared for a content type or nil.
func (action *Action) Handler(contentType string) *Handler {
	return action.handlerMap[mediaTypeOf(contentType)]
}

// ContentTypes returns the declared content types in declaration order. The first one is the action's default.
func (action *Action) ContentTypes() []string {
	contentTypes := make([]string, 0, len(action.handlers))
	for _, handler := range action.handlers {
		contentTypes = append(contentTypes, handler.ContentType)
	}
	return contentTypes
}

// AcceptCache returns the keys used to pre-filter the action during negotiation. Empty until finalized.
func (action *Action) AcceptCache() map[string]struct{} {
	return action.acceptCache
}

// setHandler adds or replaces the handler for a content type. Replacing keeps the original position.
func (action *Action) setHandler(contentType string, fn HandlerFunc, meta map[string]string) {
	if existing, ok := action.handlerMap[contentType]; ok {
		existing.Func = fn
		existing.Meta = meta
		return
	}

	handler := &Handler{
		ContentType: contentType,
		Func:        fn,
		Meta:        meta,
		Action:      action,
	}

	action.handlers = append(action.handlers, handler)
	action.handlerMap[contentType] = handler
}

// finalize computes the accept cache: every declared content type, its type/* form and */*.
func (action *Action) finalize() {
	action.acceptCache = map[string]struct{}{
		UniversalWildcard: {},
	}

	for _, handler := range action.handlers {
		action.acceptCache[handler.ContentType] = struct{}{}
		action.acceptCache[typeWildcardOf(handler.ContentType)] = struct{}{}
	}
}

// firstContentTypeWithin returns the first declared content type of the given major type, e.g. "application".
func (action *Action) firstContentTypeWithin(majorType string) (string, bool) {
	prefix := majorType + "/"
	for _, handler := range action.handlers {
		if strings.HasPrefix(handler.ContentType, prefix) {
			return handler.ContentType, true
		}
	}
	return "", false
}

// hasContentType is the exact match test used for concrete accept entries.
func (action *Action) hasContentType(contentType string) bool {
	_, ok := action.handlerMap[contentType]
	return ok
}
