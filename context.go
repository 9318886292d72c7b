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
	"net/http"
	"net/url"
)

type ContextKey string

const (
	ActionContextKey = ContextKey("xaction.Action.ContextKey")
	AcceptContextKey = ContextKey("xaction.AcceptContext.ContextKey")
)

// ActionFromRequestContext is a utility function to retrieve the *Action a Registry dispatched to during downstream
// processing, e.g. by logging or metrics middleware wrapping the Registry.
func ActionFromRequestContext(ctx context.Context) *Action {
	if val := ctx.Value(ActionContextKey); val != nil {
		if action, ok := val.(*Action); ok {
			return action
		}
	}
	return nil
}

// WithAcceptContext stores an AcceptContext on a context so that AcceptContextFromRequest does not parse the
// negotiation headers a second time.
func WithAcceptContext(ctx context.Context, acceptContext *AcceptContext) context.Context {
	return context.WithValue(ctx, AcceptContextKey, acceptContext)
}

func acceptFromContext(ctx context.Context) *AcceptContext {
	if val := ctx.Value(AcceptContextKey); val != nil {
		if acceptContext, ok := val.(*AcceptContext); ok {
			return acceptContext
		}
	}
	return nil
}

// Context is the per-request state handed to a HandlerFunc. Handlers set Status, Header and Body; the Registry
// assembles the Response from them once the handler returns, replacing a nil Header with one carrying only the
// negotiated Content-Type. A Context is never shared between requests.
type Context struct {
	Status int
	Header http.Header
	Body   interface{}

	request     *http.Request
	handler     *Handler
	contentType string
	params      map[string]string
	accept      *AcceptContext
	requestId   string
}

func newContext(request *http.Request, handler *Handler, match *MatchResult, accept *AcceptContext, requestId string) *Context {
	header := http.Header{}
	header.Set(ContentTypeHeader, match.ContentType)

	return &Context{
		Status:      http.StatusOK,
		Header:      header,
		request:     request,
		handler:     handler,
		contentType: match.ContentType,
		params:      match.Params,
		accept:      accept,
		requestId:   requestId,
	}
}

// Request returns the inbound request.
func (ctx *Context) Request() *http.Request {
	return ctx.request
}

// Context returns the request's context.Context, cancelled when the client goes away.
func (ctx *Context) Context() context.Context {
	return ctx.request.Context()
}

func (ctx *Context) Action() *Action {
	return ctx.handler.Action
}

func (ctx *Context) Handler() *Handler {
	return ctx.handler
}

// ContentType returns the negotiated content type. The Content-Type header is preset to it.
func (ctx *Context) ContentType() string {
	return ctx.contentType
}

func (ctx *Context) Public() bool {
	return ctx.handler.Action.public
}

// Params returns the path variables of the request under the action's own variable names.
func (ctx *Context) Params() map[string]string {
	return ctx.params
}

func (ctx *Context) Param(name string) string {
	return ctx.params[name]
}

// Query returns the values of the query variables declared by the action's template.
func (ctx *Context) Query() url.Values {
	return ctx.handler.Action.path.QueryValues(ctx.request.URL.Query())
}

func (ctx *Context) Accept() *AcceptContext {
	return ctx.accept
}

func (ctx *Context) RequestID() string {
	return ctx.requestId
}

// Language negotiates Accept-Language against the languages the handler can produce.
func (ctx *Context) Language(offers ...string) string {
	return ctx.accept.NegotiateLanguage(offers...)
}
