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
	"time"

	"github.com/pkg/errors"
)

// configMap is a section of a YAML v2 document: every map decodes to map[interface{}]interface{}. The typed
// getters report whether the key was present and fail when it holds the wrong type.
type configMap map[interface{}]interface{}

func asConfigMap(value interface{}) (configMap, bool) {
	switch typed := value.(type) {
	case map[interface{}]interface{}:
		return typed, true
	case configMap:
		return typed, true
	default:
		return nil, false
	}
}

func (m configMap) str(key string) (string, bool, error) {
	value, ok := m[key]
	if !ok {
		return "", false, nil
	}
	if str, ok := value.(string); ok {
		return str, true, nil
	}
	return "", true, errors.Errorf("could not use value for %s, not a string", key)
}

func (m configMap) boolean(key string) (bool, bool, error) {
	value, ok := m[key]
	if !ok {
		return false, false, nil
	}
	if b, ok := value.(bool); ok {
		return b, true, nil
	}
	return false, true, errors.Errorf("could not use value for %s, not a boolean", key)
}

func (m configMap) integer(key string) (int, bool, error) {
	value, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	if i, ok := value.(int); ok {
		return i, true, nil
	}
	return 0, true, errors.Errorf("could not use value for %s, not an integer", key)
}

func (m configMap) duration(key string) (time.Duration, bool, error) {
	str, found, err := m.str(key)
	if !found || err != nil {
		return 0, found, err
	}

	duration, err := time.ParseDuration(str)
	if err != nil {
		return 0, true, errors.Wrapf(err, "could not parse %s %s as a duration (e.g. 1m)", key, str)
	}
	return duration, true, nil
}

func (m configMap) section(key string) (configMap, bool, error) {
	value, ok := m[key]
	if !ok {
		return nil, false, nil
	}
	if section, ok := asConfigMap(value); ok {
		return section, true, nil
	}
	return nil, true, errors.Errorf("could not use value for %s, not a map", key)
}

// sections reads a list of maps, failing on the first entry that is not a map.
func (m configMap) sections(key string) ([]configMap, bool, error) {
	value, ok := m[key]
	if !ok {
		return nil, false, nil
	}

	list, ok := value.([]interface{})
	if !ok {
		return nil, true, errors.Errorf("could not use value for %s, not an array", key)
	}

	result := make([]configMap, 0, len(list))
	for i, entry := range list {
		section, ok := asConfigMap(entry)
		if !ok {
			return nil, true, errors.Errorf("could not use value for %s at index [%d], not a map", key, i)
		}
		result = append(result, section)
	}
	return result, true, nil
}
