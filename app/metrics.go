package app

import (
	"github.com/calehh/hac-gov/tx"
	"github.com/calehh/hac-gov/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "hacgov"

// Registered on the default registry, which cometbft's instrumentation
// server exposes.
var (
	proposalsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "proposals_created_total",
		Help:      "Number of proposals created.",
	})
	votesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "votes_cast_total",
		Help:      "Number of ballots cast, by option.",
	}, []string{"vote"})
	statusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "proposal_status_changes_total",
		Help:      "Number of proposals that moved to a status.",
	}, []string{"status"})
	txFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "tx_failures_total",
		Help:      "Number of finalized txs that failed, by tx type.",
	}, []string{"type"})
	blockHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "block_height",
		Help:      "Height of the last finalized block.",
	})
)

// observeTx counts the outcome of one finalized tx from its result events.
func observeTx(typ tx.GovTxType, res *abcitypes.ExecTxResult) {
	if res.Code != 0 {
		txFailures.WithLabelValues(typ.String()).Inc()
		return
	}
	for _, ev := range res.Events {
		switch ev.Type {
		case types.EventProposalType:
			proposalsCreated.Inc()
		case types.EventVoteType:
			if v := types.DecodeEventVote(ev); v != nil {
				votesCast.WithLabelValues(v.Vote.String()).Inc()
			}
		case types.EventStatusType:
			if s := types.DecodeEventStatus(ev); s != nil {
				statusChanges.WithLabelValues(s.Status.String()).Inc()
			}
		}
	}
}
