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

package main

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/openziti/xaction"
)

const (
	widgetsBinding   = "widgets"
	adminTokenHeader = "X-Admin-Token"

	contentTypeText = "text/plain"
	contentTypeHTML = "text/html"
	contentTypeJSON = "application/json"
	contentTypeLD   = "application/ld+json"
	contentTypeCBOR = "application/cbor"
	contentTypeMP   = "application/msgpack"
	contentTypeYAML = "application/yaml"
)

type widget struct {
	Id    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

type widgetStore struct {
	lock    sync.RWMutex
	nextId  int
	widgets map[int]*widget
}

func newWidgetStore() *widgetStore {
	store := &widgetStore{
		nextId:  1,
		widgets: map[int]*widget{},
	}
	store.add("sprocket", "red")
	store.add("gear", "blue")
	return store
}

func (store *widgetStore) add(name, color string) *widget {
	store.lock.Lock()
	defer store.lock.Unlock()

	w := &widget{Id: store.nextId, Name: name, Color: color}
	store.widgets[w.Id] = w
	store.nextId++
	return w
}

func (store *widgetStore) get(id int) (*widget, bool) {
	store.lock.RLock()
	defer store.lock.RUnlock()
	w, ok := store.widgets[id]
	return w, ok
}

func (store *widgetStore) list(color string) []*widget {
	store.lock.RLock()
	defer store.lock.RUnlock()

	var result []*widget
	for _, w := range store.widgets {
		if color == "" || strings.EqualFold(w.Color, color) {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Id < result[j].Id
	})
	return result
}

// newWidgetsRegistry declares the sample widgets actions. The returned registry is not finalized.
func newWidgetsRegistry(config xaction.RegistryConfig, store *widgetStore) (*xaction.Registry, error) {
	registry, err := xaction.NewRegistry(config)
	if err != nil {
		return nil, err
	}

	registry.Get("widgets.list", "/widgets{?color}").Public().
		Handle(contentTypeText, func(ctx *xaction.Context) error {
			var builder strings.Builder
			for _, w := range store.list(ctx.Query().Get("color")) {
				_, _ = fmt.Fprintf(&builder, "%d\t%s\t%s\n", w.Id, w.Name, w.Color)
			}
			ctx.Body = builder.String()
			return nil
		}).
		HandleAll([]string{contentTypeJSON, contentTypeCBOR, contentTypeMP, contentTypeYAML}, func(ctx *xaction.Context) error {
			ctx.Body = store.list(ctx.Query().Get("color"))
			return nil
		})

	registry.Get("widgets.index", "/widgets{?color}").Public().
		Hint(xaction.Hint{Links: []xaction.HintLink{{Href: "/static/widgets.css", Preload: true, As: "style"}}}).
		Handle(contentTypeHTML, func(ctx *xaction.Context) error {
			var builder strings.Builder
			builder.WriteString("<ul>")
			for _, w := range store.list(ctx.Query().Get("color")) {
				_, _ = fmt.Fprintf(&builder, "<li>%s</li>", html.EscapeString(w.Name))
			}
			builder.WriteString("</ul>")
			ctx.Body = builder.String()
			return nil
		})

	registry.Get("widgets.get", "/widgets/{id}").Public().
		HandleWith(xaction.HandlerArgs{
			ContentTypes: []string{contentTypeJSON, contentTypeLD, contentTypeCBOR, contentTypeMP, contentTypeYAML},
			Meta:         map[string]string{"schema": "Widget"},
			Handler: func(ctx *xaction.Context) error {
				id, err := strconv.Atoi(ctx.Param("id"))
				if err != nil {
					ctx.Status = http.StatusBadRequest
					return nil
				}

				w, ok := store.get(id)
				if !ok {
					ctx.Status = http.StatusNotFound
					ctx.Header.Del(xaction.ContentTypeHeader)
					return nil
				}

				if ctx.ContentType() == contentTypeLD {
					ctx.Body = map[string]interface{}{
						"@id":   ctx.Action().Registry().Config().RootIRI + "widgets/" + ctx.Param("id"),
						"@type": "Widget",
						"name":  w.Name,
						"color": w.Color,
					}
					return nil
				}

				ctx.Body = w
				return nil
			},
		})

	registry.Post("widgets.create", "/widgets").Public().
		Handle(contentTypeJSON, func(ctx *xaction.Context) error {
			input := &widget{}
			if err := json.NewDecoder(ctx.Request().Body).Decode(input); err != nil || input.Name == "" {
				ctx.Status = http.StatusBadRequest
				ctx.Body = &xaction.ProblemDetails{
					Type:   "about:blank",
					Title:  http.StatusText(http.StatusBadRequest),
					Status: http.StatusBadRequest,
					Detail: "a widget requires a name",
				}
				ctx.Header.Set(xaction.ContentTypeHeader, "application/problem+json")
				return nil
			}

			ctx.Status = http.StatusCreated
			ctx.Body = store.add(input.Name, input.Color)
			return nil
		})

	admin := registry.Scope("/admin")
	admin.Get("widgets.stats", "/widgets/stats").Private().
		Handle(contentTypeJSON, func(ctx *xaction.Context) error {
			if ctx.Request().Header.Get(adminTokenHeader) == "" {
				ctx.Status = http.StatusForbidden
				ctx.Header.Del(xaction.ContentTypeHeader)
				return nil
			}
			ctx.Body = map[string]int{"count": len(store.list(""))}
			return nil
		})

	return registry, nil
}
