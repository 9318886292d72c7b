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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/openziti/xaction"
	"github.com/openziti/xaction/codec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var routesFormat string

func init() {
	routesCmd.Flags().StringVarP(&routesFormat, "format", "f", "table", "Output format: table, json, yaml or any media type known to the codecs")
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the actions of the widgets registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newWidgetsRegistry(xaction.RegistryConfig{}, newWidgetStore())
		if err != nil {
			return err
		}

		if err = registry.Finalize(); err != nil {
			return err
		}

		return printRoutes(cmd.OutOrStdout(), registry, routesFormat)
	},
}

func printRoutes(out io.Writer, registry *xaction.Registry, format string) error {
	descriptions := registry.Describe()

	switch format {
	case "table":
		writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(writer, "NAME\tMETHOD\tTEMPLATE\tSHAPE\tACCESS\tCONTENT TYPES")
		for _, description := range descriptions {
			access := "private"
			if description.Public {
				access = "public"
			}

			var contentTypes []string
			for _, handler := range description.Handlers {
				contentTypes = append(contentTypes, handler.ContentType)
			}

			_, _ = fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n", description.Name, description.Method, description.Template, description.NormalizedPath, access, strings.Join(contentTypes, ", "))
		}
		return writer.Flush()
	case "json":
		format = codec.JSON
	case "yaml":
		format = codec.YAML
	}

	data, err := registry.Codecs().Encode(format, descriptions)
	if err != nil {
		return errors.Wrapf(err, "unsupported format [%s]", format)
	}

	_, err = out.Write(data)
	return err
}
