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
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	transporttls "github.com/openziti/transport/v2/tls"
	"github.com/openziti/xaction/middleware"
)

const (
	NewAddressHeader = "xaction-new-address"
)

// namedHttpServer is the http.Server of one bind point.
type namedHttpServer struct {
	*http.Server
	ApiBindingList  []string
	BindPointConfig *BindPointConfig
	ServerConfig    *ServerConfig
	InstanceConfig  *InstanceConfig
}

// NewBaseContext installs the ServerContext every request on this bind point carries.
func (s namedHttpServer) NewBaseContext(_ net.Listener) context.Context {
	return context.WithValue(context.Background(), ServerContextKey, &ServerContext{
		BindPoint:    s.BindPointConfig,
		ServerConfig: s.ServerConfig,
		Config:       s.InstanceConfig,
	})
}

// Server runs one http.Server per bind point of a ServerConfig, all sharing the same demux.
type Server struct {
	HttpServers    []*namedHttpServer
	logWriter      *io.PipeWriter
	Handler        http.Handler
	OnHandlerPanic func(writer http.ResponseWriter, request *http.Request, panicVal interface{})
	ServerConfig   *ServerConfig
}

// NewServer creates a new Server from a ServerConfig. Each ApiConfig binding is resolved against the instance's
// Bindings; registries that have not been finalized yet are finalized here.
func NewServer(instance *Instance, serverConfig *ServerConfig) (*Server, error) {
	handlers, err := apiHandlers(instance.Bindings, serverConfig.APIs)
	if err != nil {
		return nil, err
	}

	demux, err := NewPathPrefixDemux(handlers)
	if err != nil {
		return nil, fmt.Errorf("error creating server: %v", err)
	}

	bindingNames := make([]string, 0, len(handlers))
	for _, handler := range handlers {
		bindingNames = append(bindingNames, handler.Binding)
	}

	server := &Server{
		logWriter:    pfxlog.Logger().Writer(),
		Handler:      demux,
		ServerConfig: serverConfig,
	}

	tlsConfig := serverTLSConfig(serverConfig)
	errorLog := log.New(server.logWriter, "", 0)

	for _, bindPoint := range serverConfig.BindPoints {
		httpServer := &namedHttpServer{
			ApiBindingList:  bindingNames,
			BindPointConfig: bindPoint,
			ServerConfig:    serverConfig,
			InstanceConfig:  instance.Config,
			Server: &http.Server{
				Addr:         bindPoint.InterfaceAddress,
				Handler:      server.wrapHandler(serverConfig, bindPoint, demux),
				TLSConfig:    tlsConfig,
				ReadTimeout:  serverConfig.Options.ReadTimeout,
				WriteTimeout: serverConfig.Options.WriteTimeout,
				IdleTimeout:  serverConfig.Options.IdleTimeout,
				ErrorLog:     errorLog,
			},
		}
		httpServer.BaseContext = httpServer.NewBaseContext

		server.HttpServers = append(server.HttpServers, httpServer)
	}

	return server, nil
}

// apiHandlers resolves every API of a server to its finalized registry.
func apiHandlers(bindings Bindings, apis []*ApiConfig) ([]*ApiHandler, error) {
	handlers := make([]*ApiHandler, 0, len(apis))

	for _, api := range apis {
		registry := bindings.Get(api.Binding())
		if registry == nil {
			return nil, fmt.Errorf("encountered api binding [%s] which has no associated registry", api.Binding())
		}

		if !registry.Finalized() {
			if err := registry.Finalize(); err != nil {
				return nil, fmt.Errorf("error finalizing registry for api binding [%s]: %v", api.Binding(), err)
			}
		}

		handlers = append(handlers, &ApiHandler{
			Binding:   api.Binding(),
			RootPath:  api.RootPath(),
			IsDefault: api.IsDefault(),
			Registry:  registry,
		})
	}

	return handlers, nil
}

// serverTLSConfig returns nil for servers without an identity, which then listen on plain TCP.
func serverTLSConfig(serverConfig *ServerConfig) *tls.Config {
	if !serverConfig.TLSEnabled() {
		return nil
	}

	tlsConfig := serverConfig.Identity.ServerTLSConfig()
	tlsConfig.ClientAuth = tls.RequestClientCert
	tlsConfig.MinVersion = uint16(serverConfig.Options.MinTLSVersion)
	tlsConfig.MaxVersion = uint16(serverConfig.Options.MaxTLSVersion)
	return tlsConfig
}

// middlewareFunc decorates the handler of one bind point.
type middlewareFunc func(handler http.Handler) http.Handler

// chain returns the middleware of a bind point, innermost first.
func (server *Server) chain(serverConfig *ServerConfig, point *BindPointConfig) []middlewareFunc {
	chain := []middlewareFunc{
		func(handler http.Handler) http.Handler {
			return newAddressHandler(point, handler)
		},
		server.wrapPanicRecovery,
	}

	if serverConfig.Options.CompressionEnabled {
		minSize := middleware.WithMinSize(serverConfig.Options.CompressionMinSize)
		chain = append(chain, func(handler http.Handler) http.Handler {
			return middleware.NewCompressionHandler(handler, minSize)
		})
	}

	return chain
}

func (server *Server) wrapHandler(serverConfig *ServerConfig, point *BindPointConfig, handler http.Handler) http.Handler {
	for _, wrap := range server.chain(serverConfig, point) {
		handler = wrap(handler)
	}
	return handler
}

// wrapPanicRecovery recovers panics raised outside action handlers, which the Registry recovers itself.
func (server *Server) wrapPanicRecovery(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			panicVal := recover()
			if panicVal == nil {
				return
			}

			if server.OnHandlerPanic != nil {
				server.OnHandlerPanic(writer, request, panicVal)
				return
			}

			pfxlog.Logger().Errorf("panic caught by server handler: %v\n%v", panicVal, debugz.GenerateLocalStack())
			writer.WriteHeader(http.StatusInternalServerError)
		}()

		handler.ServeHTTP(writer, request)
	})
}

// newAddressHandler advertises the bind point's NewAddress, if any, on every response. Clients move to the new
// address on their next connect, so both addresses must stay reachable for a while.
func newAddressHandler(point *BindPointConfig, handler http.Handler) http.Handler {
	if point.NewAddress == "" {
		return handler
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		scheme := "http://"
		if request.TLS != nil {
			scheme = "https://"
		}
		writer.Header().Set(NewAddressHeader, scheme+point.NewAddress)

		handler.ServeHTTP(writer, request)
	})
}

func (server *Server) listen(httpServer *namedHttpServer) (net.Listener, error) {
	if httpServer.TLSConfig == nil {
		return net.Listen("tcp", httpServer.Addr)
	}

	tlsConfig := httpServer.TLSConfig
	tlsConfig.NextProtos = append(tlsConfig.NextProtos, "h2", "http/1.1", "")
	return transporttls.ListenTLS(httpServer.Addr, httpServer.ServerConfig.Name, tlsConfig)
}

// Start listens on every bind point. It blocks until every http.Server has stopped and returns the
// first error that was not caused by Shutdown.
func (server *Server) Start() error {
	logger := pfxlog.Logger()

	errC := make(chan error, len(server.HttpServers))

	for _, httpServer := range server.HttpServers {
		listener, err := server.listen(httpServer)
		if err != nil {
			return fmt.Errorf("error listening: %s", err)
		}

		logger.Infof("starting to listen and serve (tls: %v) on %s for server %s with APIs: %v", httpServer.TLSConfig != nil, listener.Addr(), httpServer.ServerConfig.Name, httpServer.ApiBindingList)

		go func(httpServer *namedHttpServer, listener net.Listener) {
			if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
				errC <- fmt.Errorf("error serving on %s: %s", listener.Addr(), err)
				return
			}
			errC <- nil
		}(httpServer, listener)
	}

	var firstErr error
	for range server.HttpServers {
		if err := <-errC; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Shutdown gracefully stops every http.Server and releases the error log writer.
func (server *Server) Shutdown(ctx context.Context) {
	for _, httpServer := range server.HttpServers {
		if err := httpServer.Shutdown(ctx); err != nil {
			pfxlog.Logger().WithError(err).Warnf("error shutting down http server on %s", httpServer.Addr)
		}
	}

	_ = server.logWriter.Close()
}
