package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/streamledger/foundation/stream/request"
	"github.com/spf13/cobra"
)

var (
	streamID uint64
	amount   uint64
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw accrued value from a stream",
	Run:   actionRun(request.KindWithdraw),
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a stream and split what is left",
	Run:   actionRun(request.KindCancel),
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Retry the pending payouts of a cancelled stream",
	Run:   actionRun(request.KindSettle),
}

func init() {
	for _, cmd := range []*cobra.Command{withdrawCmd, cancelCmd, settleCmd} {
		rootCmd.AddCommand(cmd)
		addRequestFlags(cmd)
		cmd.Flags().Uint64VarP(&streamID, "stream", "i", 0, "Id of the stream.")
	}
	withdrawCmd.Flags().Uint64VarP(&amount, "amount", "m", 0, "Amount to withdraw in base units.")
}

func actionRun(kind string) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		privateKey, accountID, err := loadKey()
		if err != nil {
			log.Fatal(err)
		}

		hdr, err := header(accountID)
		if err != nil {
			log.Fatal(err)
		}

		action := request.Action{
			Header:   hdr,
			Kind:     kind,
			StreamID: streamID,
			Amount:   amount,
		}

		signed, err := request.Sign(action, privateKey)
		if err != nil {
			log.Fatal(err)
		}

		var result map[string]any
		if err := post(fmt.Sprintf("/v1/streams/%d/%s", streamID, kind), signed, &result); err != nil {
			log.Fatal(err)
		}

		if err := printJSON(result); err != nil {
			log.Fatal(err)
		}
	}
}
