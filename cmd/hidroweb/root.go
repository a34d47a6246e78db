package main

import (
	"encoding/csv"
	"fmt"
	"github.com/nvxtech/hidroweb-go/hidroweb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"os"
)

var (
	flagVerbose bool
	flagCSV     string
)

var rootCmd = &cobra.Command{
	Use:   "hidroweb",
	Short: "Query hydrological and pluviometric data from the ANA Hidroweb service",
	Long: "hidroweb queries the Hidroweb REST service of the Brazilian National Water\n" +
		"Agency (ANA). Credentials and endpoint settings are read from HIDROWEB_*\n" +
		"environment variables or a .env file.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out: os.Stderr,
		})
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and retries")
	rootCmd.PersistentFlags().StringVar(&flagCSV, "csv", "", "write the result to the given CSV file instead of stdout")
}

// newClient creates an SDK client from the environment
func newClient() (*hidroweb.Client, error) {
	client, err := hidroweb.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetLogger(log.Logger)
	return client, nil
}

// output renders a table to stdout or, if --csv is set, to a CSV file
func output(table *hidroweb.Table) error {
	if flagCSV != "" {
		return writeCSV(table, flagCSV)
	}

	for _, column := range table.Columns {
		fmt.Printf("%s\t", column)
	}
	fmt.Println()
	for _, row := range table.Rows {
		for _, column := range table.Columns {
			value := row[column]
			if value == nil {
				value = ""
			}
			fmt.Printf("%v\t", value)
		}
		fmt.Println()
	}
	fmt.Printf("(%d row(s))\n", table.Len())
	return nil
}

func writeCSV(table *hidroweb.Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, column := range table.Columns {
			if value, ok := row[column]; ok && value != nil {
				record[i] = fmt.Sprintf("%v", value)
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
