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
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"designcanvas/internal/codec"
	"designcanvas/internal/storage"
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Manage saved drafts in the configured store",
}

var listProduct string

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, closeFn, err := openDrafts(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		drafts, err := store.ListDrafts(cmd.Context(), listProduct)
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPRODUCT\tVIEW\tVARIANT\tUPDATED")
		for _, d := range drafts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.ID, d.Name, d.ProductID, d.View, d.Variant, d.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var (
	showOut   string
	showThumb string
)

var draftsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a draft and optionally export it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openDrafts(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		d, err := store.GetDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := codec.Decode(d.Blob)
		if err != nil {
			return fmt.Errorf("draft %s: %w", d.ID, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %q product=%s view=%s zone=%s variant=%s %s\n",
			d.ID, d.Name, d.ProductID, d.View, d.Zone, d.Variant, d.Size)
		fmt.Fprintf(out, "created %s, updated %s, thumbnail %d bytes\n",
			d.CreatedAt.Format("2006-01-02 15:04:05"), d.UpdatedAt.Format("2006-01-02 15:04:05"), len(d.Thumbnail))
		printObjects(out, doc.Objects)
		if showOut != "" {
			if err := storage.SaveDesignFile(showOut, storage.FromDraft(d)); err != nil {
				return err
			}
			fmt.Fprintln(out, "saved:", showOut)
		}
		if showThumb != "" {
			if len(d.Thumbnail) == 0 {
				return errors.New("draft has no thumbnail")
			}
			if err := os.WriteFile(showThumb, d.Thumbnail, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(out, "thumbnail:", showThumb)
		}
		return nil
	},
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openDrafts(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		if err := store.DeleteDraft(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
		return nil
	},
}

var draftsOpenCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Load a draft into the editor and write it as a design file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if openProduct == "" || openOut == "" {
			return errors.New("--product and --out are required")
		}
		def, err := loadProduct(openProduct)
		if err != nil {
			return err
		}
		e, err := newEditor(def)
		if err != nil {
			return err
		}
		store, closeFn, err := openDrafts(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		if err := e.Open(cmd.Context(), store, args[0]); err != nil {
			return err
		}
		d, err := e.Draft(args[0], nil)
		if err != nil {
			return err
		}
		if err := storage.SaveDesignFile(openOut, storage.FromDraft(d)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d object(s) saved to %s\n", e.Scene().Len(), openOut)
		return nil
	},
}

var (
	openProduct string
	openOut     string
)

func init() {
	draftsListCmd.Flags().StringVar(&listProduct, "product", "", "only drafts of this product id")
	draftsShowCmd.Flags().StringVar(&showOut, "out", "", "also write the draft as a design file")
	draftsShowCmd.Flags().StringVar(&showThumb, "thumbnail", "", "also write the stored thumbnail")
	draftsOpenCmd.Flags().StringVar(&openProduct, "product", "", "product definition file")
	draftsOpenCmd.Flags().StringVar(&openOut, "out", "", "design file to write")

	draftsCmd.AddCommand(draftsListCmd, draftsShowCmd, draftsDeleteCmd, draftsOpenCmd)
	rootCmd.AddCommand(draftsCmd)
}
