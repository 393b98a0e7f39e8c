package main

import "github.com/ardanlabs/streamledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
