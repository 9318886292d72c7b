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
	"sync"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/identity"
)

const (
	DefaultIdentitySection = "identity"
	DefaultConfigSection   = "web"

	DefaultShutdownTimeout = time.Second * 15
)

// Instance parses a configuration section into ServerConfig's and runs a Server for each of them.
type Instance struct {
	Config   *InstanceConfig
	Bindings Bindings

	servers []*Server
	wg      sync.WaitGroup
}

// NewDefaultInstance creates an Instance reading the `web` section and the optional `identity` section.
// defaultIdentity may be nil.
func NewDefaultInstance(bindings Bindings, defaultIdentity identity.Identity) *Instance {
	return &Instance{
		Bindings: bindings,
		Config: &InstanceConfig{
			DefaultIdentitySection: DefaultIdentitySection,
			DefaultIdentity:        defaultIdentity,
			Section:                DefaultConfigSection,
		},
	}
}

// Enabled reports whether LoadConfig succeeded.
func (i *Instance) Enabled() bool {
	return i.Config.Enabled()
}

// LoadConfig parses the configuration map and validates it against the instance's Bindings.
func (i *Instance) LoadConfig(sourceMap map[interface{}]interface{}) error {
	if err := i.Config.Parse(sourceMap); err != nil {
		return err
	}
	return i.Config.Validate(i.Bindings)
}

// Build creates a Server per ServerConfig. Registries are finalized here if they were not already.
func (i *Instance) Build() error {
	for _, serverConfig := range i.Config.ServerConfigs {
		server, err := NewServer(i, serverConfig)
		if err != nil {
			return err
		}

		i.servers = append(i.servers, server)
	}

	return nil
}

// Servers returns the servers created by Build.
func (i *Instance) Servers() []*Server {
	return i.servers
}

// Start calls Start() on all Servers that were built by calling Build().
func (i *Instance) Start() {
	i.wg.Add(len(i.servers))
	for _, server := range i.servers {
		go func(server *Server) {
			defer i.wg.Done()
			if err := server.Start(); err != nil {
				pfxlog.Logger().WithField("server", server.ServerConfig.Name).WithError(err).Error("server stopped with error")
			}
		}(server)
	}
}

// Run calls Build and then Start.
func (i *Instance) Run() error {
	if err := i.Build(); err != nil {
		return err
	}
	i.Start()
	return nil
}

// Wait blocks until every started Server has stopped.
func (i *Instance) Wait() {
	i.wg.Wait()
}

// Shutdown stops all running Server's, waiting at most DefaultShutdownTimeout for in-flight requests.
func (i *Instance) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(len(i.servers))
	for _, server := range i.servers {
		go func(server *Server) {
			defer wg.Done()
			server.Shutdown(ctx)
		}(server)
	}
	wg.Wait()
}
