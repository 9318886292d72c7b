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

package metrics

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/openziti/xaction"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, observer *Observer, labels prometheus.Labels) float64 {
	metric := &dto.Metric{}
	require.NoError(t, observer.total.With(labels).Write(metric))
	return metric.GetCounter().GetValue()
}

func histogramCount(t *testing.T, observer *Observer, labels prometheus.Labels) uint64 {
	metric := &dto.Metric{}
	require.NoError(t, observer.duration.With(labels).(prometheus.Histogram).Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestObserver(t *testing.T) {

	t.Run("dispatches are counted per outcome, action and method", func(t *testing.T) {
		req := require.New(t)
		observer, err := NewObserver("xaction", prometheus.NewRegistry())
		req.NoError(err)

		observer.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeMatch, Action: "widgets.list", Method: "GET", Duration: time.Millisecond})
		observer.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeMatch, Action: "widgets.list", Method: "GET", Duration: time.Millisecond})
		observer.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeNotFound, Method: "POST"})

		matched := prometheus.Labels{OutcomeLabel: "match", ActionLabel: "widgets.list", MethodLabel: "GET"}
		req.Equal(float64(2), counterValue(t, observer, matched))
		req.Equal(uint64(2), histogramCount(t, observer, matched))

		unmatched := prometheus.Labels{OutcomeLabel: "not_found", ActionLabel: "none", MethodLabel: "POST"}
		req.Equal(float64(1), counterValue(t, observer, unmatched))
	})

	t.Run("non-standard methods share one label", func(t *testing.T) {
		req := require.New(t)
		registry := prometheus.NewRegistry()
		observer, err := NewObserver("xaction", registry)
		req.NoError(err)

		for i := 0; i < 50; i++ {
			observer.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeNotFound, Method: "M" + strconv.Itoa(i)})
		}
		observer.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeNotFound, Method: "DELETE"})

		other := prometheus.Labels{OutcomeLabel: "not_found", ActionLabel: "none", MethodLabel: OtherMethod}
		req.Equal(float64(50), counterValue(t, observer, other))

		families, err := registry.Gather()
		req.NoError(err)
		for _, family := range families {
			if family.GetName() == "xaction_dispatch_total" {
				req.Len(family.GetMetric(), 2)
			}
		}
	})

	t.Run("registering twice reuses the collectors", func(t *testing.T) {
		req := require.New(t)
		registry := prometheus.NewRegistry()

		first, err := NewObserver("xaction", registry)
		req.NoError(err)
		second, err := NewObserver("xaction", registry)
		req.NoError(err)

		first.ObserveDispatch(xaction.DispatchEvent{Outcome: xaction.OutcomeError, Action: "widgets.get", Method: "GET"})

		labels := prometheus.Labels{OutcomeLabel: "error", ActionLabel: "widgets.get", MethodLabel: "GET"}
		req.Equal(float64(1), counterValue(t, second, labels))

		families, err := registry.Gather()
		req.NoError(err)
		req.Len(families, 2)
		req.Equal("xaction_dispatch_duration_seconds", families[0].GetName())
		req.Equal("xaction_dispatch_total", families[1].GetName())
	})

	t.Run("conflicting collectors are reported", func(t *testing.T) {
		req := require.New(t)
		registry := prometheus.NewRegistry()
		registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xaction",
			Name:      DispatchTotalName,
			Help:      "Requests dispatched by an action registry.",
		}))

		_, err := NewObserver("xaction", registry)
		req.Error(err)
	})

	t.Run("the registry reports to the observer", func(t *testing.T) {
		req := require.New(t)
		observer, err := NewObserver("xaction", prometheus.NewRegistry())
		req.NoError(err)

		registry, err := xaction.NewRegistry(xaction.RegistryConfig{Observer: observer})
		req.NoError(err)
		registry.Get("widgets.list", "/widgets").Public().Handle("text/plain", func(ctx *xaction.Context) error {
			ctx.Body = "sprocket"
			return nil
		})
		req.NoError(registry.Finalize())

		request, err := http.NewRequest(http.MethodGet, "/widgets", nil)
		req.NoError(err)
		_, err = registry.HandleRequest(request)
		req.NoError(err)

		labels := prometheus.Labels{OutcomeLabel: "match", ActionLabel: "widgets.list", MethodLabel: "GET"}
		req.Equal(float64(1), counterValue(t, observer, labels))
	})
}
