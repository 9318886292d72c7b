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

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/identity"
	"github.com/pkg/errors"
)

// ServerConfig describes one Server: the registries it mounts, the bind points it listens on, its options and
// optionally its own TLS identity.
type ServerConfig struct {
	Name       string
	APIs       []*ApiConfig
	BindPoints []*BindPointConfig
	Options    Options

	DefaultIdentity identity.Identity
	Identity        identity.Identity
}

// Parse reads `name`, `apis`, `bindPoints` (all required), `identity` and `options`. pathContext locates the server
// in the document for identity path resolution.
func (config *ServerConfig) Parse(serverMap map[interface{}]interface{}, pathContext string) error {
	section := configMap(serverMap)

	name, found, err := section.str("name")
	if err != nil {
		return err
	}
	if !found {
		return errors.New("name is required")
	}
	config.Name = name

	if err = config.parseApis(section); err != nil {
		return err
	}

	if err = config.parseBindPoints(section); err != nil {
		return err
	}

	if err = config.parseIdentity(section, pathContext); err != nil {
		return err
	}

	config.Options = Options{}
	config.Options.Default()

	if optionsSection, found, err := section.section("options"); err != nil {
		return err
	} else if found {
		if err = config.Options.Parse(optionsSection); err != nil {
			return errors.Wrap(err, "error parsing options section")
		}
	}

	return nil
}

func (config *ServerConfig) parseApis(section configMap) error {
	apiSections, found, err := section.sections("apis")
	if err != nil {
		return err
	}
	if !found {
		return errors.New("apis section is required")
	}

	for i, apiSection := range apiSections {
		api := &ApiConfig{}
		if err := api.Parse(apiSection); err != nil {
			return errors.Wrapf(err, "error parsing api configuration at index [%d]", i)
		}
		config.APIs = append(config.APIs, api)
	}

	return nil
}

func (config *ServerConfig) parseBindPoints(section configMap) error {
	bindPointSections, found, err := section.sections("bindPoints")
	if err != nil {
		return err
	}
	if !found {
		return errors.New("bindPoints is required")
	}

	for i, bindPointSection := range bindPointSections {
		bindPoint := &BindPointConfig{}
		if err := bindPoint.Parse(bindPointSection); err != nil {
			return errors.Wrapf(err, "error parsing bindPoint configuration at index [%d]", i)
		}
		config.BindPoints = append(config.BindPoints, bindPoint)
	}

	return nil
}

// parseIdentity loads the server's own identity. Without one the server uses the instance default, if any.
func (config *ServerConfig) parseIdentity(section configMap, pathContext string) error {
	identitySection, found, err := section.section("identity")
	if err != nil || !found {
		return err
	}

	identityConfig, err := parseIdentityConfig(identitySection, pathContext+".identity")
	if err != nil {
		return errors.Wrap(err, "error parsing identity section")
	}

	if config.Identity, err = identity.LoadIdentity(*identityConfig); err != nil {
		return errors.Wrap(err, "error loading identity")
	}

	if err = config.Identity.WatchFiles(); err != nil {
		pfxlog.Logger().Warnf("could not enable file watching on identity of server [%s]: %v", config.Name, err)
	}

	return nil
}

// Validate checks every ApiConfig binding against bindings and validates the bind points and options.
func (config *ServerConfig) Validate(bindings Bindings) error {
	if config.Name == "" {
		return errors.New("name must not be empty")
	}

	if len(config.APIs) == 0 {
		return errors.New("no APIs specified, must specify at least one")
	}

	for i, api := range config.APIs {
		if err := api.Validate(); err != nil {
			return fmt.Errorf("invalid ApiConfig at index [%d]: %v", i, err)
		}

		if bindings.Get(api.Binding()) == nil {
			return fmt.Errorf("invalid ApiConfig at index [%d]: no registry for binding [%s]", i, api.Binding())
		}
	}

	if len(config.BindPoints) == 0 {
		return errors.New("no bindPoint specified, must specify at least one")
	}

	for i, bindPoint := range config.BindPoints {
		if bindPoint == nil {
			return fmt.Errorf("bindPoint at index [%d] is nil", i)
		}
		if err := bindPoint.Validate(); err != nil {
			return fmt.Errorf("invalid bindPoint at index [%d]: %v", i, err)
		}
	}

	if config.Identity == nil {
		config.Identity = config.DefaultIdentity
	}

	return config.Options.Validate()
}

// TLSEnabled is true when the server has an identity to present.
func (config *ServerConfig) TLSEnabled() bool {
	return config.Identity != nil
}
