// This program performs administrative tasks for the stream ledger.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/streamledger/app/tooling/admin/commands"
	"github.com/ardanlabs/streamledger/foundation/logger"
	"github.com/ardanlabs/streamledger/foundation/stream/genesis"
	"github.com/ardanlabs/streamledger/foundation/stream/state"
	"github.com/ardanlabs/streamledger/foundation/stream/storage/disk"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			log.Errorw("startup", "ERROR", err)
		}
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
			DBPath      string `conf:"default:zblock/streams/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "STREAMD"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	strg, err := disk.New(cfg.State.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	st, err := state.New(state.Config{
		Genesis:    gen,
		Serializer: strg,
		EvHandler:  ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	return processCommands(cfg.Args, st)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, st *state.State) error {
	switch args.Num(0) {
	case "streams":
		if err := commands.Streams(os.Stdout, args.Num(1), st); err != nil {
			return fmt.Errorf("listing streams: %w", err)
		}

	case "bals":
		if err := commands.Balances(os.Stdout, args.Num(1), st); err != nil {
			return fmt.Errorf("listing balances: %w", err)
		}

	case "custody":
		if err := commands.Custody(os.Stdout, st); err != nil {
			return fmt.Errorf("checking custody: %w", err)
		}

	default:
		fmt.Println("streams [account]: list the persisted streams")
		fmt.Println("bals <account>:    show the vault balances of an account")
		fmt.Println("custody:           compare custody with the open streams")
		return commands.ErrHelp
	}

	return nil
}
