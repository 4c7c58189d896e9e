/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"designcanvas/internal/product"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Inspect product definitions",
}

var productValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a product definition and print its resolved zones",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := product.Load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Product %s (%s)\n", def.ID, def.Name)
		for _, v := range def.Views {
			fmt.Fprintf(out, "  view %s %gx%g\n", v.Name, v.Width, v.Height)
			for _, z := range v.Zones {
				r, ok := z.Resolve(v.Canvas())
				if !ok {
					fmt.Fprintf(out, "    zone %s: no area, clamping disabled\n", z.ID)
					continue
				}
				fmt.Fprintf(out, "    zone %s: x=%g y=%g w=%g h=%g", z.ID, r.X, r.Y, r.W, r.H)
				if z.MaxLayers > 0 {
					fmt.Fprintf(out, " maxLayers=%d", z.MaxLayers)
				}
				fmt.Fprintln(out)
			}
		}
		for _, va := range def.Variants {
			fmt.Fprintf(out, "  variant %s %v\n", va.ID, va.Sizes)
		}
		if err := def.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
		return nil
	},
}

func init() {
	productCmd.AddCommand(productValidateCmd)
	rootCmd.AddCommand(productCmd)
}
