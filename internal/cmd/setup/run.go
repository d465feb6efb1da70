package setup

import (
	"context"
	"flag"

	isetup "github.com/arogoff/nas/internal/setup"
)

type Options struct {
	DBPath    string
	DataDir   string
	SharesDir string
	GenTLS    bool
}

func Run(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	var opt Options
	fs.StringVar(&opt.DBPath, "db", "./data/nas.db", "sqlite database path")
	fs.StringVar(&opt.DataDir, "data-dir", "./data", "data directory (keys/certs)")
	fs.StringVar(&opt.SharesDir, "shares-dir", "", "share roots directory (default <data-dir>/shares)")
	fs.BoolVar(&opt.GenTLS, "gen-tls", false, "generate a self-signed TLS certificate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return isetup.Run(context.Background(), isetup.Options{
		DBPath:    opt.DBPath,
		DataDir:   opt.DataDir,
		SharesDir: opt.SharesDir,
		GenTLS:    opt.GenTLS,
	})
}
