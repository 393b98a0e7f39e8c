package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

type holding struct {
	Asset   string `json:"asset"`
	Amount  uint64 `json:"amount"`
	Display string `json:"display"`
}

type accountInfo struct {
	Account  string    `json:"account"`
	Name     string    `json:"name"`
	Nonce    uint64    `json:"nonce"`
	Balances []holding `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your vault balances.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	_, accountID, err := loadKey()
	if err != nil {
		log.Fatal(err)
	}

	var info accountInfo
	if err := get(fmt.Sprintf("/v1/accounts/%s", accountID), &info); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("For Account: %s (%s) nonce %d\n", info.Account, info.Name, info.Nonce)
	for _, h := range info.Balances {
		fmt.Printf("%-6s %s\n", h.Asset, h.Display)
	}
}
