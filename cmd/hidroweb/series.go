package main

import (
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/spf13/cobra"
)

var seriesCmd = &cobra.Command{
	Use:   "series <kind> <station code> <start date> <end date>",
	Short: "Fetch the time series of one station",
	Long: "Fetch the dated measurements of one station and one measurement kind.\n" +
		"Kind is one of 'cota' (water level), 'chuva' (rainfall) or 'vazao' (flow).\n" +
		"Dates are accepted as yyyy-MM-dd, dd/MM/yyyy or dd-MM-yyyy.",
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := hidroweb.ParseSeriesKind(args[0])
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		table, err := client.SeriesTable(cmd.Context(), kind, args[1], args[2], args[3])
		if err != nil {
			return err
		}
		return output(table)
	},
}

func init() {
	rootCmd.AddCommand(seriesCmd)
}
