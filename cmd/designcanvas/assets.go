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
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage the image library",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List image keys with their native size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lib := library()
		keys, err := lib.Keys()
		if err != nil {
			return err
		}
		for _, k := range keys {
			ref, err := lib.Ref(k)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%v)\n", k, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0fx%.0f\n", k, ref.Width, ref.Height)
		}
		return nil
	},
}

var assetsImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Copy images into the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := library()
		for _, src := range args {
			ref, err := lib.Import(src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%.0fx%.0f)\n", ref.Key, ref.Width, ref.Height)
		}
		return nil
	},
}

func init() {
	assetsCmd.AddCommand(assetsListCmd, assetsImportCmd)
	rootCmd.AddCommand(assetsCmd)
}
