package main

import (
	"context"
	"fmt"

	"github.com/calehh/hac-gov/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Key     string
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the nonce of an account",
	Args:  cobra.NoArgs,
	RunE:  accountRun,
}

var pkArgs struct {
	Key string
}

var pkCmd = &cobra.Command{
	Use:   "pk",
	Short: "Print the public key and address of a key file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pv, err := crypto.LoadFilePV(pkArgs.Key)
		if err != nil {
			return err
		}
		fmt.Printf("pk:%s addr:%s\n", common.Bytes2Hex(pv.PublicKey()), pv.Address())
		return nil
	},
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().StringVarP(&accountArgs.Key, "key", "k", "", "key file whose address is queried when no address is given")
	pkCmd.Flags().StringVarP(&pkArgs.Key, "key", "k", "./config/priv_validator_key.json", "private key path")
	accountCmd.AddCommand(pkCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	address := accountArgs.Address
	if address == "" {
		if accountArgs.Key == "" {
			return fmt.Errorf("either --address or --key is required")
		}
		pv, err := crypto.LoadFilePV(accountArgs.Key)
		if err != nil {
			return err
		}
		address = pv.Address()
	}
	cli, err := newGovClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := cli.account(context.Background(), address)
	if err != nil {
		return err
	}
	fmt.Printf("addr:%v nonce:%v\n", act.Address(), act.Nonce)
	return nil
}
