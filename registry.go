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
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	"github.com/openziti/xaction/codec"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	RequestIdHeader = "X-Request-Id"

	DefaultRootIRI = "/"
)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// RootIRI is joined with action templates by Action.URL
	RootIRI string

	// Codecs encodes structured response bodies, codec.Default() if nil
	Codecs *codec.Registry

	// Observer is notified of every dispatched request, optional
	Observer Observer

	// ExposeErrors copies handler error messages into 500 problem bodies. Off unless debugging.
	ExposeErrors bool
}

// Default provides defaults for all unset values
func (config *RegistryConfig) Default() {
	if config.RootIRI == "" {
		config.RootIRI = DefaultRootIRI
	}

	if config.Codecs == nil {
		config.Codecs = codec.Default()
	}
}

// Validate validates the configuration values
func (config *RegistryConfig) Validate() error {
	if _, err := url.Parse(config.RootIRI); err != nil {
		return errors.Wrapf(err, "invalid root IRI [%s]", config.RootIRI)
	}

	if config.Codecs == nil {
		return errors.New("codecs must be provided")
	}

	return nil
}

// Registry collects Action declarations and, once finalized, dispatches requests to them. Declarations are
// made through Method (or the per-method helpers of the embedded HTTP) and Scope. Finalize freezes the
// declarations and builds the DispatchIndex; HandleRequest and ServeHTTP then serve concurrently without locking.
type Registry struct {
	HTTP
	config  RegistryConfig
	rootIRI string

	lock      sync.Mutex
	finalized atomic.Bool
	actions   []*Action
	actionMap map[string]*Action
	scopes    []*Scope
	errs      []error

	index *DispatchIndex
}

// NewRegistry creates a Registry. Unset configuration values are defaulted before validation.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	config.Default()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := &Registry{
		config:    config,
		rootIRI:   config.RootIRI,
		actionMap: map[string]*Action{},
	}
	registry.HTTP = HTTP{callable: registry}

	return registry, nil
}

// Config returns the effective configuration.
func (registry *Registry) Config() RegistryConfig {
	return registry.config
}

// Codecs returns the codecs used to encode structured response bodies.
func (registry *Registry) Codecs() *codec.Registry {
	return registry.config.Codecs
}

// Method declares an action. The returned builder must choose public or private access before handlers can be
// declared. Declaring after Finalize panics with ErrRegistryFinalized.
func (registry *Registry) Method(method, name, path string) *ActionAuth {
	return registry.declare(nil, method, name, path)
}

// Scope creates a Scope declaring actions under the path prefix.
func (registry *Registry) Scope(path string) *Scope {
	return registry.addScope(nil, path)
}

func (registry *Registry) addScope(parent *Scope, path string) *Scope {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if registry.isFinalized() {
		panic(errors.Wrapf(ErrRegistryFinalized, "scope [%s] cannot be added", path))
	}

	scope := newScope(registry, parent, path)
	registry.scopes = append(registry.scopes, scope)
	return scope
}

func (registry *Registry) declare(scope *Scope, method, name, path string) *ActionAuth {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if registry.isFinalized() {
		panic(errors.Wrapf(ErrRegistryFinalized, "action [%s] cannot be declared", name))
	}

	pathTemplate, err := NewPathTemplate(path)

	// invalid declarations still get a builder so chained calls do not fail, the action is just never indexed
	detached := false

	if err != nil {
		registry.errs = append(registry.errs, errors.Wrapf(err, "action [%s]", name))
		pathTemplate = &PathTemplate{template: path, locations: map[string]Location{}}
		detached = true
	} else if name == "" {
		registry.errs = append(registry.errs, errors.Errorf("action for %s [%s] has no name", method, path))
		detached = true
	} else if _, ok := registry.actionMap[name]; ok {
		registry.errs = append(registry.errs, errors.Errorf("action [%s] already declared", name))
		detached = true
	}

	action := newAction(registry, scope, method, name, pathTemplate)

	if !detached {
		logrus.Debugf("declaring action [%s] %s %s", name, action.method, path)
		registry.actions = append(registry.actions, action)
		registry.actionMap[name] = action
	}

	return &ActionAuth{builder: &actionBuilder{registry: registry, action: action}}
}

func (registry *Registry) addError(err error) {
	registry.lock.Lock()
	defer registry.lock.Unlock()
	registry.errs = append(registry.errs, err)
}

func (registry *Registry) isFinalized() bool {
	return registry.finalized.Load()
}

// Finalized reports whether Finalize has run.
func (registry *Registry) Finalized() bool {
	return registry.isFinalized()
}

// Finalize computes the accept caches, groups actions by normalized path and method, and builds the
// DispatchIndex. Groups are ordered by the first declaration of each normalized path and, within a path, by the
// first declaration of each method. Actions without handlers are skipped with a warning. Declaration errors are
// returned joined; the registry is finalized regardless and serves the valid actions.
func (registry *Registry) Finalize() error {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	if registry.isFinalized() {
		return ErrRegistryFinalized
	}

	type groupKey struct {
		path   string
		method string
	}

	var paths []string
	methods := map[string][]string{}
	members := map[groupKey][]*Action{}

	for _, action := range registry.actions {
		if len(action.handlers) == 0 {
			pfxlog.Logger().Warnf("action [%s] %s %s declares no handlers and will not be dispatched to", action.name, action.method, action.Template())
			continue
		}

		action.finalize()

		normalized := action.path.Normalized()
		if _, ok := methods[normalized]; !ok {
			paths = append(paths, normalized)
			methods[normalized] = nil
		}

		key := groupKey{path: normalized, method: action.method}
		if _, ok := members[key]; !ok {
			methods[normalized] = append(methods[normalized], action.method)
		}
		members[key] = append(members[key], action)
	}

	var groups []*ActionGroup
	for _, path := range paths {
		for _, method := range methods[path] {
			groups = append(groups, NewActionGroup(method, path, members[groupKey{path: path, method: method}]))
		}
	}

	registry.index = NewDispatchIndex(groups)
	registry.finalized.Store(true)

	pfxlog.Logger().Debugf("action registry finalized with %d actions in %d groups", len(registry.actions), len(groups))

	return stderrors.Join(registry.errs...)
}

// Index returns the DispatchIndex, nil before Finalize.
func (registry *Registry) Index() *DispatchIndex {
	if !registry.isFinalized() {
		return nil
	}
	return registry.index
}

// HandleRequest resolves and invokes the action for a request. Negotiation outcomes are returned as responses:
// 404 when no method and path match, 406 listing the candidate content types when nothing acceptable is offered.
// Handler failures and panics are logged once and answered with a 500. The only error returned is
// ErrNotFinalized.
func (registry *Registry) HandleRequest(request *http.Request) (*Response, error) {
	if !registry.isFinalized() {
		return nil, ErrNotFinalized
	}

	start := time.Now()

	requestId := request.Header.Get(RequestIdHeader)
	if requestId == "" {
		requestId = uuid.NewString()
	}

	accept := AcceptContextFromRequest(request)
	path := request.URL.EscapedPath()

	event := DispatchEvent{
		Method:    request.Method,
		Path:      path,
		RequestId: requestId,
	}

	var response *Response
	result := registry.index.match(newProbe(request.Method, path), accept)

	switch {
	case result == nil:
		pfxlog.Logger().Debugf("no action matched %s %s", request.Method, path)
		event.Outcome = OutcomeNotFound
		response = newResponse(http.StatusNotFound)

	case result.Kind == MatchUnsupportedContentType:
		pfxlog.Logger().Debugf("no acceptable content type for %s %s, offered %v", request.Method, path, result.ContentTypes)
		event.Outcome = OutcomeNotAcceptable
		problem := newProblem(http.StatusNotAcceptable, path)
		problem.Detail = "none of the available content types are acceptable"
		problem.ContentTypes = result.ContentTypes
		response = newProblemResponse(problem)

	default:
		event.Action = result.Action.name
		event.ContentType = result.ContentType
		event.Outcome = OutcomeMatch
		var err error
		if response, err = registry.invoke(request, result, accept, requestId); err != nil {
			event.Outcome = OutcomeError
		}
	}

	response.Header.Set(RequestIdHeader, requestId)

	if registry.config.Observer != nil {
		event.Duration = time.Since(start)
		registry.config.Observer.ObserveDispatch(event)
	}

	return response, nil
}

func (registry *Registry) invoke(request *http.Request, result *MatchResult, accept *AcceptContext, requestId string) (*Response, error) {
	action := result.Action
	handler := action.Handler(result.ContentType)

	request = request.WithContext(context.WithValue(request.Context(), ActionContextKey, action))
	ctx := newContext(request, handler, result, accept, requestId)

	if err := callHandler(ctx); err != nil {
		handlerErr := &HandlerError{
			Action:      action.name,
			ContentType: result.ContentType,
			Method:      request.Method,
			Path:        request.URL.EscapedPath(),
			Cause:       err,
		}

		logger := pfxlog.Logger().WithFields(logrus.Fields{
			"action":      handlerErr.Action,
			"contentType": handlerErr.ContentType,
			"method":      handlerErr.Method,
			"path":        handlerErr.Path,
			"requestId":   requestId,
		})

		var panicErr *handlerPanic
		if errors.As(err, &panicErr) {
			logger.Errorf("panic caught by action handler: %v\n%v", panicErr.value, panicErr.stack)
		} else {
			logger.WithError(err).Error("action handler failed")
		}

		problem := newProblem(http.StatusInternalServerError, handlerErr.Path)
		if registry.config.ExposeErrors {
			problem.Detail = handlerErr.Error()
		}
		return newProblemResponse(problem), handlerErr
	}

	header := ctx.Header
	if header == nil {
		header = http.Header{}
		header.Set(ContentTypeHeader, result.ContentType)
	}

	response := &Response{
		Status: ctx.Status,
		Header: header,
		Body:   ctx.Body,
	}

	for _, hint := range action.hints {
		for _, link := range hint.Links {
			response.Header.Add(LinkHeader, link.String())
		}
		if hint.CSP != "" {
			response.Header.Set(ContentSecurityPolicyHeader, hint.CSP)
		}
	}

	return response, nil
}

type handlerPanic struct {
	value interface{}
	stack string
}

func (p *handlerPanic) Error() string {
	return fmt.Sprintf("handler panicked: %v", p.value)
}

func callHandler(ctx *Context) (err error) {
	defer func() {
		if panicVal := recover(); panicVal != nil {
			err = &handlerPanic{
				value: panicVal,
				stack: debugz.GenerateLocalStack(),
			}
		}
	}()

	return ctx.handler.Func(ctx)
}

func newProblemResponse(problem *ProblemDetails) *Response {
	response := newResponse(problem.Status)
	response.Header.Set(ContentTypeHeader, codec.ProblemJSON)
	response.Body = problem
	return response
}

// ServeHTTP adapts the Registry to http.Handler.
func (registry *Registry) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	response, err := registry.HandleRequest(request)
	if err != nil {
		pfxlog.Logger().WithError(err).Errorf("could not dispatch %s %s", request.Method, request.URL.Path)
		response = newProblemResponse(newProblem(http.StatusInternalServerError, request.URL.EscapedPath()))
	}

	if err = response.Write(writer, request, registry.config.Codecs); err != nil {
		pfxlog.Logger().WithError(err).Errorf("could not write response for %s %s", request.Method, request.URL.Path)

		// structured bodies fail before anything is written, so the status can still be changed
		if isStructured(response.Body) {
			_ = newResponse(http.StatusInternalServerError).Write(writer, request, nil)
		}
	}
}

func isStructured(body interface{}) bool {
	switch body.(type) {
	case nil, io.Reader, []byte, string:
		return false
	default:
		return true
	}
}

// Actions returns every indexed action in registration order.
func (registry *Registry) Actions() []*Action {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	actions := make([]*Action, len(registry.actions))
	copy(actions, registry.actions)
	return actions
}

// Action returns the action with the given name or nil.
func (registry *Registry) Action(name string) *Action {
	registry.lock.Lock()
	defer registry.lock.Unlock()
	return registry.actionMap[name]
}

// Handlers returns the handlers of every action, in action then declaration order.
func (registry *Registry) Handlers() []*Handler {
	var handlers []*Handler
	for _, action := range registry.Actions() {
		handlers = append(handlers, action.handlers...)
	}
	return handlers
}

// Scopes returns the scopes in creation order.
func (registry *Registry) Scopes() []*Scope {
	registry.lock.Lock()
	defer registry.lock.Unlock()

	scopes := make([]*Scope, len(registry.scopes))
	copy(scopes, registry.scopes)
	return scopes
}
