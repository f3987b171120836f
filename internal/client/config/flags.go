package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/formai/internal/flagx"
)

// FlagNames are the command-line flags read by parseFlags, in the form
// flagx.FilterArgs expects.
var FlagNames = []string{"-a", "-g", "-d", "-l", "-t", "-i", "-v"}

// parseFlags populates Config fields from command-line flags. args are
// filtered with flagx.FilterArgs first, so subcommand flags do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, FlagNames)

	fs := flag.NewFlagSet("formai", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BackendURL, "a", cfg.BackendURL, "backend base URL")
	fs.StringVar(&cfg.GRPCHealthAddr, "g", cfg.GRPCHealthAddr, "gRPC health address")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.IntVar(&cfg.FreeScanLimit, "l", cfg.FreeScanLimit, "free scan limit (0 = platform default)")
	fs.DurationVar(&cfg.UploadTimeout, "t", cfg.UploadTimeout, "upload timeout")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
