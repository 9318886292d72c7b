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
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/xaction"
	"github.com/openziti/xaction/metrics"
	"github.com/openziti/xaction/web"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	configFile   string
	metricsAddr  string
	exposeErrors bool
)

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics", "", "Address to serve prometheus metrics on, disabled if empty")
	serveCmd.Flags().BoolVar(&exposeErrors, "expose-errors", false, "Include handler error messages in 500 responses")
	_ = serveCmd.MarkFlagRequired("config")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widgets registry on the servers defined in a configuration file",
	RunE:  runServe,
}

func loadConfigMap(path string) (map[interface{}]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file [%s]", path)
	}

	configMap := map[interface{}]interface{}{}
	if err = yaml.Unmarshal(data, &configMap); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file [%s]", path)
	}

	return configMap, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := pfxlog.Logger()

	configMap, err := loadConfigMap(configFile)
	if err != nil {
		return err
	}

	registerer := prometheus.NewRegistry()
	observer, err := metrics.NewObserver("xaction", registerer)
	if err != nil {
		return err
	}

	registry, err := newWidgetsRegistry(xaction.RegistryConfig{
		Observer:     observer,
		ExposeErrors: exposeErrors,
	}, newWidgetStore())
	if err != nil {
		return err
	}

	if err = registry.Finalize(); err != nil {
		return errors.Wrap(err, "invalid widgets registry")
	}

	bindings := web.NewBindingMap()
	if err = bindings.Add(widgetsBinding, registry); err != nil {
		return err
	}

	instance := web.NewDefaultInstance(bindings, nil)
	if err = instance.LoadConfig(configMap); err != nil {
		return errors.Wrapf(err, "invalid configuration in [%s]", configFile)
	}

	if err = instance.Run(); err != nil {
		return err
	}

	var metricsServer *http.Server
	if metricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	log.Infof("received %v, shutting down", sig)

	if metricsServer != nil {
		_ = metricsServer.Close()
	}

	instance.Shutdown()
	instance.Wait()

	return nil
}
