package main

import (
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/spf13/cobra"
)

var (
	flagStationCode  string
	flagStationState string
	flagStationBasin string
	flagUpdatedSince string
	flagUpdatedUntil string
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the monitoring station inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		table, err := client.StationsTable(cmd.Context(), &hidroweb.StationFilter{
			Code:         flagStationCode,
			State:        flagStationState,
			BasinCode:    flagStationBasin,
			UpdatedSince: flagUpdatedSince,
			UpdatedUntil: flagUpdatedUntil,
		})
		if err != nil {
			return err
		}
		return output(table)
	},
}

func init() {
	stationsCmd.Flags().StringVar(&flagStationCode, "code", "", "station code (8 digits)")
	stationsCmd.Flags().StringVar(&flagStationState, "state", "", "federal state code (e.g. SP)")
	stationsCmd.Flags().StringVar(&flagStationBasin, "basin", "", "basin code")
	stationsCmd.Flags().StringVar(&flagUpdatedSince, "updated-since", "", "start of the last-update window")
	stationsCmd.Flags().StringVar(&flagUpdatedUntil, "updated-until", "", "end of the last-update window")
	rootCmd.AddCommand(stationsCmd)
}
