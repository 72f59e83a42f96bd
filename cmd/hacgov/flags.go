package main

import (
	"github.com/calehh/hac-gov/types"
	"github.com/spf13/cobra"
)

const defaultNodeURL = "http://127.0.0.1:26657"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, types.FlagURL, "u", defaultNodeURL, "hacgov node rpc url")
}

// signerFlags registers the flags every tx command shares.
func signerFlags(cmd *cobra.Command, args *signerArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().StringVarP(&args.Key, types.FlagKey, "k", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().Uint64VarP(&args.Nonce, types.FlagNonce, "n", 0, "account nonce, queried from the node when 0")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed tx instead of sending it")
}
