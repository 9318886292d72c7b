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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"goji.io/pat"
	"goji.io/pattern"
)

// Location is where a template variable is carried in a request IRI.
type Location int

const (
	LocationNone Location = iota
	LocationPath
	LocationQuery
	LocationFragment
)

func (location Location) String() string {
	switch location {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationFragment:
		return "fragment"
	default:
		return "none"
	}
}

const (
	placeholderPrefix         = ":"
	placeholderVariablePrefix = "value"

	// characters that may precede a path variable, see goji.io/pat
	breakChars = "/.;,"
)

// PathTemplate is a parsed URI template restricted to the subset used for routing: {name} and :name path
// variables, {?a,b} / {&a,b} query groups and {#a} fragment groups.
type PathTemplate struct {
	template   string
	normalized string
	pattern    *pat.Pattern

	// placeholders holds the variable names bound by each :valueN placeholder, in order
	placeholders [][]string

	locations    map[string]Location
	paramKeys    []string
	queryKeys    []string
	fragmentKeys []string
}

// NormalizePath erases variable names from a template so templates with the same shape compare equal:
// "/users/{id}" and "/users/:userId" both become "/users/:value1". Query and fragment groups, and anything after
// them, do not contribute to the shape.
func NormalizePath(template string) string {
	if pathTemplate, err := NewPathTemplate(template); err == nil {
		return pathTemplate.normalized
	}
	return template
}

// NewPathTemplate parses a template. Templates must be absolute paths.
func NewPathTemplate(template string) (*PathTemplate, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, errors.Errorf("path template [%s] must start with '/'", template)
	}

	pathTemplate := &PathTemplate{
		template:  template,
		locations: map[string]Location{},
	}

	var normalized strings.Builder
	foundQueryOrFragment := false
	// a placeholder extends up to the next break character, so only one may follow it
	afterPlaceholder := false

	for index := 0; index < len(template); {
		char := template[index]

		switch {
		case char == '{':
			end := strings.IndexByte(template[index:], '}')
			if end < 0 {
				return nil, errors.Errorf("unterminated expression at offset %d in path template [%s]", index, template)
			}
			expression := template[index+1 : index+end]
			if strings.ContainsRune(expression, '{') {
				return nil, errors.Errorf("nested expression at offset %d in path template [%s]", index, template)
			}

			location := LocationPath
			if expression != "" {
				switch expression[0] {
				case '?', '&':
					location = LocationQuery
					expression = expression[1:]
				case '#':
					location = LocationFragment
					expression = expression[1:]
				}
			}

			names, err := parseVarList(expression)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid expression at offset %d in path template [%s]", index, template)
			}

			if location != LocationPath {
				foundQueryOrFragment = true
			} else if foundQueryOrFragment {
				return nil, errors.Errorf("path variable {%s} follows a query or fragment group in path template [%s]", expression, template)
			} else if !followsBreak(normalized.String()) {
				return nil, errors.Errorf("path variable {%s} must follow one of %q in path template [%s]", expression, breakChars, template)
			} else {
				pathTemplate.addPlaceholder(&normalized, names)
				afterPlaceholder = true
			}

			if err := pathTemplate.addKeys(location, names); err != nil {
				return nil, errors.Wrapf(err, "invalid path template [%s]", template)
			}

			index += end + 1

		case char == '}':
			return nil, errors.Errorf("unexpected '}' at offset %d in path template [%s]", index, template)

		case char == ':' && !foundQueryOrFragment && index > 0 && template[index-1] == '/':
			end := index + 1
			for end < len(template) && isVarChar(template[end]) {
				end++
			}
			if end == index+1 {
				return nil, errors.Errorf("empty variable name at offset %d in path template [%s]", index, template)
			}

			names := []string{template[index+1 : end]}
			pathTemplate.addPlaceholder(&normalized, names)
			afterPlaceholder = true
			if err := pathTemplate.addKeys(LocationPath, names); err != nil {
				return nil, errors.Wrapf(err, "invalid path template [%s]", template)
			}

			index = end

		default:
			if !foundQueryOrFragment {
				if afterPlaceholder && strings.IndexByte(breakChars, char) < 0 {
					return nil, errors.Errorf("path variable at offset %d must be followed by one of %q in path template [%s]", index, breakChars, template)
				}
				if char == ':' && followsBreak(normalized.String()) {
					return nil, errors.Errorf("literal ':' at offset %d cannot follow one of %q in path template [%s]", index, breakChars, template)
				}
				normalized.WriteByte(char)
				afterPlaceholder = false
			}
			index++
		}
	}

	pathTemplate.normalized = normalized.String()
	pathTemplate.pattern = pat.New(pathTemplate.normalized)

	return pathTemplate, nil
}

func (pathTemplate *PathTemplate) addPlaceholder(normalized *strings.Builder, names []string) {
	pathTemplate.placeholders = append(pathTemplate.placeholders, names)
	normalized.WriteString(placeholderName(len(pathTemplate.placeholders)))
}

func (pathTemplate *PathTemplate) addKeys(location Location, names []string) error {
	for _, name := range names {
		if existing, ok := pathTemplate.locations[name]; ok {
			return errors.Errorf("variable [%s] declared in both %s and %s", name, existing, location)
		}
		pathTemplate.locations[name] = location

		switch location {
		case LocationPath:
			pathTemplate.paramKeys = append(pathTemplate.paramKeys, name)
		case LocationQuery:
			pathTemplate.queryKeys = append(pathTemplate.queryKeys, name)
		case LocationFragment:
			pathTemplate.fragmentKeys = append(pathTemplate.fragmentKeys, name)
		}
	}
	return nil
}

func followsBreak(normalized string) bool {
	return normalized != "" && strings.IndexByte(breakChars, normalized[len(normalized)-1]) >= 0
}

func placeholderName(position int) string {
	return placeholderPrefix + placeholderVariable(position)
}

// placeholderVariable is the name goji stores a placeholder's value under, without the leading ':'.
func placeholderVariable(position int) string {
	return placeholderVariablePrefix + strconv.Itoa(position)
}

func parseVarList(expression string) ([]string, error) {
	if expression == "" {
		return nil, errors.New("empty expression")
	}

	var names []string
	for _, name := range strings.Split(expression, ",") {
		name = strings.TrimSpace(name)
		// explode modifiers have no meaning for matching
		name = strings.TrimSuffix(name, "*")
		if colon := strings.IndexByte(name, ':'); colon >= 0 {
			name = name[:colon]
		}

		if name == "" {
			return nil, errors.Errorf("empty variable name in {%s}", expression)
		}

		for i := 0; i < len(name); i++ {
			if !isVarChar(name[i]) && name[i] != '.' && name[i] != '%' {
				return nil, errors.Errorf("invalid character %q in variable name [%s]", name[i], name)
			}
		}

		names = append(names, name)
	}
	return names, nil
}

func isVarChar(char byte) bool {
	return char == '_' ||
		(char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z') ||
		(char >= '0' && char <= '9')
}

// Template returns the template as declared.
func (pathTemplate *PathTemplate) Template() string {
	return pathTemplate.template
}

// Normalized returns the variable-name-free shape of the path portion of the template.
func (pathTemplate *PathTemplate) Normalized() string {
	return pathTemplate.normalized
}

// ParamKeys returns the path variable names in template order.
func (pathTemplate *PathTemplate) ParamKeys() []string {
	return pathTemplate.paramKeys
}

// QueryKeys returns the query variable names in template order.
func (pathTemplate *PathTemplate) QueryKeys() []string {
	return pathTemplate.queryKeys
}

// FragmentKeys returns the fragment variable names in template order.
func (pathTemplate *PathTemplate) FragmentKeys() []string {
	return pathTemplate.fragmentKeys
}

// LocationOf returns where the named variable is carried, or LocationNone if the template does not declare it.
func (pathTemplate *PathTemplate) LocationOf(key string) Location {
	if location, ok := pathTemplate.locations[key]; ok {
		return location
	}
	return LocationNone
}

// Match tests an escaped request path against the template and returns the bound path variables.
func (pathTemplate *PathTemplate) Match(path string) (map[string]string, bool) {
	matched := pathTemplate.pattern.Match(newProbe("", path))
	if matched == nil {
		return nil, false
	}
	return pathTemplate.Values(matched), true
}

// Values reads the path variables out of a request that was matched by a pattern with the same normalized
// shape as this template. Placeholders are positional, so any template in the same ActionGroup can read them
// under its own names. Expressions binding several names, e.g. {x,y}, split the segment on commas.
func (pathTemplate *PathTemplate) Values(matched *http.Request) map[string]string {
	values := make(map[string]string, len(pathTemplate.paramKeys))

	for i, names := range pathTemplate.placeholders {
		raw, ok := matched.Context().Value(pattern.Variable(placeholderVariable(i + 1))).(string)
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}

		if len(names) == 1 {
			values[names[0]] = raw
			continue
		}

		parts := strings.SplitN(raw, ",", len(names))
		for j, name := range names {
			if j < len(parts) {
				values[name] = parts[j]
			}
		}
	}

	return values
}

// QueryValues returns the query values of the declared query variables that are present in query.
func (pathTemplate *PathTemplate) QueryValues(query url.Values) map[string][]string {
	values := make(map[string][]string, len(pathTemplate.queryKeys))
	for _, key := range pathTemplate.queryKeys {
		if value, ok := query[key]; ok {
			values[key] = value
		}
	}
	return values
}

// newProbe builds the minimal request goji patterns need to match a bare path.
func newProbe(method, path string) *http.Request {
	probe := &http.Request{Method: method}
	return probe.WithContext(pattern.SetPath(context.Background(), path))
}
