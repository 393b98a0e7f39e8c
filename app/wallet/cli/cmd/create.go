package cmd

import (
	"log"
	"time"

	"github.com/ardanlabs/streamledger/foundation/stream/account"
	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/spf13/cobra"
)

var (
	recipient string
	asset     string
	deposit   uint64
	startIn   time.Duration
	duration  time.Duration
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a stream to a recipient",
	Run:   createRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
	addRequestFlags(createCmd)
	createCmd.Flags().StringVarP(&recipient, "to", "t", "", "Account receiving the stream.")
	createCmd.Flags().StringVarP(&asset, "asset", "s", "ARD", "Asset to stream.")
	createCmd.Flags().Uint64VarP(&deposit, "deposit", "d", 0, "Deposit in base units.")
	createCmd.Flags().DurationVar(&startIn, "start-in", time.Minute, "Time from now at which the stream starts.")
	createCmd.Flags().DurationVar(&duration, "duration", time.Hour, "How long the stream runs for.")
}

func createRun(cmd *cobra.Command, args []string) {
	privateKey, accountID, err := loadKey()
	if err != nil {
		log.Fatal(err)
	}

	to, err := account.ToID(recipient)
	if err != nil {
		log.Fatalf("recipient: %s", err)
	}

	hdr, err := header(accountID)
	if err != nil {
		log.Fatal(err)
	}

	start := uint64(time.Now().Add(startIn).Unix())

	create := request.Create{
		Header:    hdr,
		Recipient: to,
		Asset:     asset,
		Deposit:   deposit,
		StartTime: start,
		StopTime:  start + uint64(duration/time.Second),
	}

	signed, err := request.Sign(create, privateKey)
	if err != nil {
		log.Fatal(err)
	}

	var stream map[string]any
	if err := post("/v1/streams", signed, &stream); err != nil {
		log.Fatal(err)
	}

	if err := printJSON(stream); err != nil {
		log.Fatal(err)
	}
}
