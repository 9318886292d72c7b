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

import "context"

type ContextKey string

const (
	ApiHandlerContextKey = ContextKey("web.ApiHandler.ContextKey")
	ServerContextKey     = ContextKey("web.Server.ContextKey")
)

// ServerContext provides access to the configuration of the bind point a request arrived on.
type ServerContext struct {
	BindPoint    *BindPointConfig
	ServerConfig *ServerConfig
	Config       *InstanceConfig
}

// ApiHandlerFromRequestContext returns the *ApiHandler the PathPrefixDemux routed the request to, or nil.
func ApiHandlerFromRequestContext(ctx context.Context) *ApiHandler {
	handler, _ := ctx.Value(ApiHandlerContextKey).(*ApiHandler)
	return handler
}

// ServerContextFromRequestContext returns the *ServerContext installed by the http.Server's BaseContext, or nil.
func ServerContextFromRequestContext(ctx context.Context) *ServerContext {
	serverContext, _ := ctx.Value(ServerContextKey).(*ServerContext)
	return serverContext
}
