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

/*
Package metrics records xaction dispatch outcomes as prometheus metrics.
*/
package metrics

import (
	"net/http"

	"github.com/openziti/xaction"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DispatchTotalName    = "dispatch_total"
	DispatchDurationName = "dispatch_duration_seconds"

	OutcomeLabel = "outcome"
	ActionLabel  = "action"
	MethodLabel  = "method"

	// unmatchedAction is the action label of requests that did not resolve to an action
	unmatchedAction = "none"

	// OtherMethod is the method label of requests using a method outside the standard set
	OtherMethod = "other"
)

var standardMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// methodLabel bounds the method label to the standard methods, clients choose the method freely.
func methodLabel(method string) string {
	if _, ok := standardMethods[method]; ok {
		return method
	}
	return OtherMethod
}

// Observer is an xaction.Observer that counts dispatches and observes their duration, labelled by outcome, action
// and method.
type Observer struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ xaction.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors with registerer. A nil registerer uses
// prometheus.DefaultRegisterer. Collectors that are already registered are reused.
func NewObserver(namespace string, registerer prometheus.Registerer) (*Observer, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      DispatchTotalName,
		Help:      "Requests dispatched by an action registry.",
	}, []string{OutcomeLabel, ActionLabel, MethodLabel})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      DispatchDurationName,
		Help:      "Time spent negotiating and handling a dispatched request.",
		Buckets:   prometheus.DefBuckets,
	}, []string{OutcomeLabel, ActionLabel, MethodLabel})

	var err error
	if total, err = register(registerer, total); err != nil {
		return nil, err
	}
	if duration, err = register(registerer, duration); err != nil {
		return nil, err
	}

	return &Observer{
		total:    total,
		duration: duration,
	}, nil
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			if existing, ok := alreadyRegistered.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, errors.Wrap(err, "could not register dispatch metrics")
	}
	return collector, nil
}

// ObserveDispatch implements xaction.Observer.
func (observer *Observer) ObserveDispatch(event xaction.DispatchEvent) {
	action := event.Action
	if action == "" {
		action = unmatchedAction
	}

	labels := prometheus.Labels{
		OutcomeLabel: string(event.Outcome),
		ActionLabel:  action,
		MethodLabel:  methodLabel(event.Method),
	}

	observer.total.With(labels).Inc()
	observer.duration.With(labels).Observe(event.Duration.Seconds())
}
