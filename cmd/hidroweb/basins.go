package main

import (
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/spf13/cobra"
)

var flagBasinCode string

var basinsCmd = &cobra.Command{
	Use:   "basins",
	Short: "List the hydrographic basin inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		table, err := client.BasinsTable(cmd.Context(), &hidroweb.BasinFilter{
			Code: flagBasinCode,
		})
		if err != nil {
			return err
		}
		return output(table)
	},
}

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List the inventory of station operating organizations",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		table, err := client.EntitiesTable(cmd.Context(), nil)
		if err != nil {
			return err
		}
		return output(table)
	},
}

func init() {
	basinsCmd.Flags().StringVar(&flagBasinCode, "code", "", "basin code")
	rootCmd.AddCommand(basinsCmd)
	rootCmd.AddCommand(entitiesCmd)
}
