package main

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/calehh/hac-gov/app"
	"github.com/calehh/hac-gov/types"
	"github.com/spf13/cobra"
)

var queryArgs struct {
	Url        string
	Proposal   uint64
	Voter      string
	AppID      uint64
	StartAfter string
	Limit      uint32
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query governance state",
}

// queryRun builds the request for a query path from the shared flags and
// prints the JSON answer.
func queryRun(path string, req func() (any, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		r, err := req()
		if err != nil {
			return err
		}
		cli, err := newGovClient(queryArgs.Url)
		if err != nil {
			return err
		}
		var res json.RawMessage
		if err = cli.query(context.Background(), path, r, &res); err != nil {
			return err
		}
		return printJSON(res)
	}
}

func init() {
	cmds := []*cobra.Command{
		{
			Use:   "proposal",
			Short: "Show one proposal, or list proposals when no id is given",
			RunE: queryRun("/proposals/", func() (any, error) {
				q := app.ProposalQuery{ID: queryArgs.Proposal, Limit: queryArgs.Limit}
				if queryArgs.StartAfter != "" {
					id, err := strconv.ParseUint(queryArgs.StartAfter, 10, 64)
					if err != nil {
						return nil, err
					}
					q.StartAfter = id
				}
				return q, nil
			}),
		},
		{
			Use:   "ballots",
			Short: "Show the ballot of a voter, or list the ballots of a proposal",
			RunE: queryRun("/ballots/", func() (any, error) {
				return app.BallotQuery{Proposal: queryArgs.Proposal, Voter: queryArgs.Voter, StartAfter: queryArgs.StartAfter, Limit: queryArgs.Limit}, nil
			}),
		},
		{
			Use:   "deposits",
			Short: "Show deposits made to a proposal",
			RunE: queryRun("/deposits/", func() (any, error) {
				return app.DepositQuery{Proposal: queryArgs.Proposal, Voter: queryArgs.Voter}, nil
			}),
		},
		{
			Use:   "vote-weight",
			Short: "Show the summed vote weight of a proposal",
			RunE: queryRun("/vote_weight/", func() (any, error) {
				return app.VoteWeightQuery{Proposal: queryArgs.Proposal}, nil
			}),
		},
		{
			Use:   "app-proposals",
			Short: "List the proposal ids of an app",
			RunE: queryRun("/app_proposals/", func() (any, error) {
				return app.AppProposalsQuery{AppID: queryArgs.AppID}, nil
			}),
		},
		{
			Use:   "config",
			Short: "Show the governance config",
			RunE: queryRun("/config/", func() (any, error) {
				return nil, nil
			}),
		},
	}
	pf := queryCmd.PersistentFlags()
	pf.StringVarP(&queryArgs.Url, types.FlagURL, "u", defaultNodeURL, "hacgov node rpc url")
	pf.Uint64VarP(&queryArgs.Proposal, "proposal", "p", 0, "proposal id")
	pf.StringVarP(&queryArgs.Voter, "voter", "", "", "voter address")
	pf.Uint64VarP(&queryArgs.AppID, "app", "a", 0, "app id")
	pf.StringVarP(&queryArgs.StartAfter, "start-after", "", "", "list after this key")
	pf.Uint32VarP(&queryArgs.Limit, "limit", "l", 0, "page size")
	for _, c := range cmds {
		c.Args = cobra.NoArgs
		queryCmd.AddCommand(c)
	}
}
