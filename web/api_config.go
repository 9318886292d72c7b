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
	"strings"

	"github.com/pkg/errors"
)

const DefaultRootPath = "/"

// ApiConfig mounts the xaction.Registry added to Bindings under a name on a ServerConfig. The PathPrefixDemux routes
// requests below RootPath to the registry, which still matches against the full request path.
type ApiConfig struct {
	binding   string
	rootPath  string
	isDefault bool
}

func (api *ApiConfig) Binding() string {
	return api.binding
}

func (api *ApiConfig) RootPath() string {
	return api.rootPath
}

// IsDefault is true if the registry receives the requests no root path matches.
func (api *ApiConfig) IsDefault() bool {
	return api.isDefault
}

// Parse reads `binding` (required), `rootPath` and `default`.
func (api *ApiConfig) Parse(apiConfigMap map[interface{}]interface{}) error {
	section := configMap(apiConfigMap)

	binding, found, err := section.str("binding")
	if err != nil {
		return err
	}
	if !found {
		return errors.New("binding is required")
	}
	api.binding = binding

	api.rootPath = DefaultRootPath
	if rootPath, found, err := section.str("rootPath"); err != nil {
		return err
	} else if found {
		api.rootPath = rootPath
	}

	if api.isDefault, _, err = section.boolean("default"); err != nil {
		return err
	}

	return nil
}

func (api *ApiConfig) Validate() error {
	if api.binding == "" {
		return errors.New("binding must be specified")
	}

	if !strings.HasPrefix(api.rootPath, "/") {
		return errors.Errorf("rootPath [%s] must start with '/'", api.rootPath)
	}

	return nil
}
