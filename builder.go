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
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Callable is anything actions can be declared on: a Registry or a Scope.
type Callable interface {
	Method(method, name, path string) *ActionAuth
}

// HTTP provides one declaration function per HTTP method on top of a Callable.
type HTTP struct {
	callable Callable
}

func (h HTTP) Get(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodGet, name, path)
}

func (h HTTP) Head(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodHead, name, path)
}

func (h HTTP) Post(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodPost, name, path)
}

func (h HTTP) Put(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodPut, name, path)
}

func (h HTTP) Patch(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodPatch, name, path)
}

func (h HTTP) Delete(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodDelete, name, path)
}

func (h HTTP) Options(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodOptions, name, path)
}

func (h HTTP) Trace(name, path string) *ActionAuth {
	return h.callable.Method(http.MethodTrace, name, path)
}

// HandlerArgs declares one handler for one or more content types, with optional metadata exposed through
// Registry.Describe.
type HandlerArgs struct {
	ContentTypes []string
	Handler      HandlerFunc
	Meta         map[string]string
}

// actionBuilder is shared by the phase types below. All of them write into the same unfinalized Action.
type actionBuilder struct {
	registry *Registry
	action   *Action
}

func (builder *actionBuilder) checkOpen() {
	if builder.registry.isFinalized() {
		panic(errors.Wrapf(ErrRegistryFinalized, "action [%s] cannot be modified", builder.action.name))
	}
}

func (builder *actionBuilder) handle(args HandlerArgs) {
	builder.checkOpen()

	if args.Handler == nil {
		builder.registry.addError(errors.Errorf("action [%s]: handler for %v is nil", builder.action.name, args.ContentTypes))
		return
	}

	if len(args.ContentTypes) == 0 {
		builder.registry.addError(errors.Errorf("action [%s]: handler declared without a content type", builder.action.name))
		return
	}

	for _, contentType := range args.ContentTypes {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			builder.registry.addError(errors.Wrapf(err, "action [%s]: invalid content type [%s]", builder.action.name, contentType))
			continue
		}

		if strings.Contains(mediaType, Wildcard) || !strings.Contains(mediaType, "/") {
			builder.registry.addError(errors.Errorf("action [%s]: content type [%s] must be a concrete type/subtype", builder.action.name, contentType))
			continue
		}

		builder.action.setHandler(mediaTypeOf(mediaType), args.Handler, args.Meta)
	}
}

// ActionAuth is the first phase of a declaration: the access level must be chosen before anything else.
type ActionAuth struct {
	builder *actionBuilder
}

// Public marks the action as publicly accessible. Public actions contribute their content types to the 406
// response when negotiation fails.
func (auth *ActionAuth) Public() *Endpoint {
	auth.builder.checkOpen()
	auth.builder.action.public = true
	return &Endpoint{builder: auth.builder}
}

// Private leaves the action private.
func (auth *ActionAuth) Private() *Endpoint {
	auth.builder.checkOpen()
	return &Endpoint{builder: auth.builder}
}

// Endpoint is the second phase: hints may be attached until the first handler is declared.
type Endpoint struct {
	builder *actionBuilder
}

// Hint attaches a preload/link hint.
func (endpoint *Endpoint) Hint(hint Hint) *Endpoint {
	endpoint.builder.checkOpen()
	endpoint.builder.action.hints = append(endpoint.builder.action.hints, hint)
	return endpoint
}

// Handle declares the handler for a single content type.
func (endpoint *Endpoint) Handle(contentType string, handler HandlerFunc) *HandledAction {
	return endpoint.HandleWith(HandlerArgs{ContentTypes: []string{contentType}, Handler: handler})
}

// HandleAll declares one handler for several content types.
func (endpoint *Endpoint) HandleAll(contentTypes []string, handler HandlerFunc) *HandledAction {
	return endpoint.HandleWith(HandlerArgs{ContentTypes: contentTypes, Handler: handler})
}

// HandleWith declares a handler from HandlerArgs.
func (endpoint *Endpoint) HandleWith(args HandlerArgs) *HandledAction {
	endpoint.builder.handle(args)
	return &HandledAction{builder: endpoint.builder}
}

// HandledAction is the final phase: more content types may be added until the Registry is finalized.
type HandledAction struct {
	builder *actionBuilder
}

// Handle declares the handler for a single content type.
func (handled *HandledAction) Handle(contentType string, handler HandlerFunc) *HandledAction {
	return handled.HandleWith(HandlerArgs{ContentTypes: []string{contentType}, Handler: handler})
}

// HandleAll declares one handler for several content types.
func (handled *HandledAction) HandleAll(contentTypes []string, handler HandlerFunc) *HandledAction {
	return handled.HandleWith(HandlerArgs{ContentTypes: contentTypes, Handler: handler})
}

// HandleWith declares a handler from HandlerArgs.
func (handled *HandledAction) HandleWith(args HandlerArgs) *HandledAction {
	handled.builder.handle(args)
	return handled
}

// Action returns the Action being declared.
func (handled *HandledAction) Action() *Action {
	return handled.builder.action
}
