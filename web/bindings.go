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
	"fmt"

	"github.com/openziti/xaction"
	"github.com/sirupsen/logrus"
)

// Bindings describes a registry of binding names to xaction.Registry instances
type Bindings interface {
	Add(binding string, registry *xaction.Registry) error
	Get(binding string) *xaction.Registry
}

// BindingMap is a basic Bindings implementation backed by a simple mapping of binding (string) to
// xaction.Registry instances
type BindingMap struct {
	registries map[string]*xaction.Registry
}

var _ Bindings = (*BindingMap)(nil)

// NewBindingMap creates a new BindingMap
func NewBindingMap() *BindingMap {
	return &BindingMap{
		registries: map[string]*xaction.Registry{},
	}
}

// Add adds a registry under a binding. Errors if a previous registry with the same binding is registered.
func (bindings *BindingMap) Add(binding string, registry *xaction.Registry) error {
	logrus.Debugf("adding action registry with binding: %v", binding)

	if registry == nil {
		return fmt.Errorf("binding [%s] has a nil registry", binding)
	}

	if _, ok := bindings.registries[binding]; ok {
		return fmt.Errorf("binding [%s] already registered", binding)
	}

	bindings.registries[binding] = registry

	return nil
}

// Get retrieves a registry based on a binding or nil if no registry for the binding is registered
func (bindings *BindingMap) Get(binding string) *xaction.Registry {
	return bindings.registries[binding]
}
