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
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xaction"
)

// ApiHandler is an xaction.Registry mounted under a root path.
type ApiHandler struct {
	Binding   string
	RootPath  string
	IsDefault bool
	Registry  *xaction.Registry
}

func (handler *ApiHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	handler.Registry.ServeHTTP(writer, request)
}

// PathPrefixDemux routes requests to one ApiHandler out of several by URL path prefix. The longest matching root
// path wins. Requests no root path matches go to the default handler.
type PathPrefixDemux struct {
	handlers       []*ApiHandler
	defaultHandler *ApiHandler
}

var _ http.Handler = (*PathPrefixDemux)(nil)

// NewPathPrefixDemux validates the handlers and builds the demux.
func NewPathPrefixDemux(handlers []*ApiHandler) (*PathPrefixDemux, error) {
	defaultHandler, err := getDefault(handlers)
	if err != nil {
		return nil, err
	}

	handlerMap := map[string]*ApiHandler{}

	for _, handler := range handlers {
		if existing, ok := handlerMap[handler.RootPath]; ok {
			return nil, fmt.Errorf("duplicate root path [%s] detected for both bindings [%s] and [%s]", handler.RootPath, handler.Binding, existing.Binding)
		}
		handlerMap[handler.RootPath] = handler
	}

	sorted := make([]*ApiHandler, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].RootPath) > len(sorted[j].RootPath)
	})

	return &PathPrefixDemux{
		handlers:       sorted,
		defaultHandler: defaultHandler,
	}, nil
}

func (demux *PathPrefixDemux) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	target := demux.defaultHandler
	for _, handler := range demux.handlers {
		if strings.HasPrefix(request.URL.Path, handler.RootPath) {
			target = handler
			break
		}
	}

	// downstream handlers log the binding they were reached through
	ctx := context.WithValue(request.Context(), ApiHandlerContextKey, target)
	target.ServeHTTP(writer, request.WithContext(ctx))
}

// getDefault picks the handler serving requests that match no root path. At most one handler may set IsDefault;
// when none does, the last handler is used.
func getDefault(handlers []*ApiHandler) (*ApiHandler, error) {
	if len(handlers) == 0 {
		return nil, errors.New("no handlers provided")
	}

	var defaults []string
	var defaultHandler *ApiHandler

	for _, handler := range handlers {
		if handler.IsDefault {
			defaults = append(defaults, fmt.Sprintf("[Binding: %s]", handler.Binding))
			defaultHandler = handler
		}
	}

	switch len(defaults) {
	case 0:
		defaultHandler = handlers[len(handlers)-1]
		pfxlog.Logger().Debugf("no default handlers were found, using the last handler [Binding: %s] as the default", defaultHandler.Binding)
	case 1:
	default:
		return nil, errors.New("too many default handlers found, ensure that only one handler is marked as the default: " + strings.Join(defaults, ","))
	}

	return defaultHandler, nil
}
