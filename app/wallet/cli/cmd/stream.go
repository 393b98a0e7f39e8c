package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Print a stream and what it has accrued",
	Run:   streamRun,
}

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "Print the streams your account is a party to",
	Run:   streamsRun,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(streamsCmd)
	streamCmd.Flags().Uint64VarP(&streamID, "stream", "i", 0, "Id of the stream.")
}

func streamRun(cmd *cobra.Command, args []string) {
	var stream map[string]any
	if err := get(fmt.Sprintf("/v1/streams/%d", streamID), &stream); err != nil {
		log.Fatal(err)
	}

	out := map[string]any{"stream": stream}

	var balance map[string]any
	if err := get(fmt.Sprintf("/v1/streams/%d/balance", streamID), &balance); err == nil {
		out["balance"] = balance
	}

	if err := printJSON(out); err != nil {
		log.Fatal(err)
	}
}

func streamsRun(cmd *cobra.Command, args []string) {
	_, accountID, err := loadKey()
	if err != nil {
		log.Fatal(err)
	}

	var streams []map[string]any
	if err := get(fmt.Sprintf("/v1/streams/account/%s", accountID), &streams); err != nil {
		log.Fatal(err)
	}

	if err := printJSON(streams); err != nil {
		log.Fatal(err)
	}
}
