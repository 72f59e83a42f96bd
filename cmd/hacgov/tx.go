package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/tx"
	"github.com/spf13/cobra"
)

type proposeArguments struct {
	signerArguments
	AppID       uint64
	Title       string
	Description string
	Msgs        string
	Deposit     string
}

var proposeArgs proposeArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Submit a governance proposal for an app",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := newProposeTx(&proposeArgs)
		if err != nil {
			return err
		}
		return sendTx(&proposeArgs.signerArguments, tx.GovTxTypePropose, body)
	},
}

type proposalArguments struct {
	signerArguments
	Proposal uint64
}

type voteArguments struct {
	proposalArguments
	Option string
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote yes, no, abstain or veto on a proposal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vote, err := gov.ParseVote(voteArgs.Option)
		if err != nil {
			return err
		}
		return sendTx(&voteArgs.signerArguments, tx.GovTxTypeVote, &tx.VoteTx{Proposal: voteArgs.Proposal, Vote: vote})
	},
}

type depositArguments struct {
	proposalArguments
	Amount string
}

var depositArgs depositArguments

var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Add to the deposit of an open proposal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := gov.ParseCoins(depositArgs.Amount)
		if err != nil {
			return err
		}
		return sendTx(&depositArgs.signerArguments, tx.GovTxTypeDeposit, &tx.DepositTx{Proposal: depositArgs.Proposal, Amount: amount})
	},
}

var settleArgs proposalArguments

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Resolve the status of a proposal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&settleArgs.signerArguments, tx.GovTxTypeSettle, &tx.SettleTx{Proposal: settleArgs.Proposal})
	},
}

var refundArgs proposalArguments

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Refund the deposit of a finished proposal to its proposer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&refundArgs.signerArguments, tx.GovTxTypeRefund, &tx.RefundTx{Proposal: refundArgs.Proposal})
	},
}

func init() {
	signerFlags(proposeCmd, &proposeArgs.signerArguments)
	proposeCmd.Flags().Uint64VarP(&proposeArgs.AppID, "app", "a", 0, "app id the proposal belongs to")
	proposeCmd.Flags().StringVarP(&proposeArgs.Title, "title", "t", "", "proposal title")
	proposeCmd.Flags().StringVarP(&proposeArgs.Description, "description", "", "", "proposal description")
	proposeCmd.Flags().StringVarP(&proposeArgs.Msgs, "msgs", "m", "", "JSON array of governance msgs, or @file")
	proposeCmd.Flags().StringVarP(&proposeArgs.Deposit, "deposit", "", "", "initial deposit, e.g. 10ugov")

	for _, c := range []struct {
		cmd  *cobra.Command
		args *proposalArguments
	}{
		{voteCmd, &voteArgs.proposalArguments},
		{depositCmd, &depositArgs.proposalArguments},
		{settleCmd, &settleArgs},
		{refundCmd, &refundArgs},
	} {
		signerFlags(c.cmd, &c.args.signerArguments)
		c.cmd.Flags().Uint64VarP(&c.args.Proposal, "proposal", "p", 0, "proposal id")
	}
	voteCmd.Flags().StringVarP(&voteArgs.Option, "option", "o", "yes", "vote option")
	depositCmd.Flags().StringVarP(&depositArgs.Amount, "amount", "", "", "deposit amount, e.g. 10ugov")
}

func newProposeTx(args *proposeArguments) (*tx.ProposeTx, error) {
	if args.Title == "" {
		return nil, fmt.Errorf("proposal title is required")
	}
	msgs, err := parseMsgs(args.Msgs)
	if err != nil {
		return nil, err
	}
	deposit, err := gov.ParseCoins(args.Deposit)
	if err != nil {
		return nil, err
	}
	return &tx.ProposeTx{
		AppID:       args.AppID,
		Title:       args.Title,
		Description: args.Description,
		Msgs:        msgs,
		Deposit:     deposit,
	}, nil
}

// parseMsgs reads msgs from a JSON array, or from a file when prefixed
// with @. Every msg must carry exactly one action.
func parseMsgs(s string) (msgs []gov.Msg, err error) {
	if s == "" {
		return nil, nil
	}
	dat := []byte(s)
	if path, ok := strings.CutPrefix(s, "@"); ok {
		dat, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	if err = json.Unmarshal(dat, &msgs); err != nil {
		return nil, fmt.Errorf("decoding msgs: %w", err)
	}
	for i, m := range msgs {
		if _, err = m.Action(); err != nil {
			return nil, fmt.Errorf("msg %d: %w", i, err)
		}
	}
	return
}
