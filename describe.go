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

// HandlerDescription describes one content type of an action.
type HandlerDescription struct {
	ContentType string            `json:"contentType" yaml:"contentType"`
	Meta        map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ActionDescription is the introspection view of an Action, used to build hypermedia and documentation.
type ActionDescription struct {
	Name           string               `json:"name" yaml:"name"`
	Method         string               `json:"method" yaml:"method"`
	Template       string               `json:"template" yaml:"template"`
	NormalizedPath string               `json:"normalizedPath" yaml:"normalizedPath"`
	URL            string               `json:"url" yaml:"url"`
	Public         bool                 `json:"public" yaml:"public"`
	Scope          string               `json:"scope,omitempty" yaml:"scope,omitempty"`
	ParamKeys      []string             `json:"paramKeys,omitempty" yaml:"paramKeys,omitempty"`
	QueryKeys      []string             `json:"queryKeys,omitempty" yaml:"queryKeys,omitempty"`
	FragmentKeys   []string             `json:"fragmentKeys,omitempty" yaml:"fragmentKeys,omitempty"`
	Handlers       []HandlerDescription `json:"handlers" yaml:"handlers"`
}

// Describe returns a description of every action in registration order.
func (registry *Registry) Describe() []ActionDescription {
	actions := registry.Actions()
	descriptions := make([]ActionDescription, 0, len(actions))

	for _, action := range actions {
		description := ActionDescription{
			Name:           action.name,
			Method:         action.method,
			Template:       action.Template(),
			NormalizedPath: action.path.Normalized(),
			URL:            action.URL(),
			Public:         action.public,
			ParamKeys:      action.path.ParamKeys(),
			QueryKeys:      action.path.QueryKeys(),
			FragmentKeys:   action.path.FragmentKeys(),
			Handlers:       make([]HandlerDescription, 0, len(action.handlers)),
		}

		if action.scope != nil {
			description.Scope = action.scope.Path()
		}

		for _, handler := range action.handlers {
			description.Handlers = append(description.Handlers, HandlerDescription{
				ContentType: handler.ContentType,
				Meta:        handler.Meta,
			})
		}

		descriptions = append(descriptions, description)
	}

	return descriptions
}
