package agent

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/hac-gov/gov"
	"github.com/calehh/hac-gov/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// chainClient is the part of the cometbft RPC client the indexer reads.
type chainClient interface {
	Status(ctx context.Context) (*ctypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error)
}

// ChainIndexer follows the chain and keeps a sqlite read model of the
// governance events.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Height        int64
	db            *gorm.DB
	cli           chainClient
	interval      time.Duration
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	return newChainIndexer(logger, dbPath, cli, interval)
}

func newChainIndexer(logger cmtlog.Logger, dbPath string, cli chainClient, interval time.Duration) (*ChainIndexer, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Proposal{}, &Vote{}, &Deposit{}, &Height{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		db.Close()
		return nil, err
	}

	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		cli:      cli,
		interval: interval,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventProposalType: c.handleEventProposal,
		types.EventVoteType:     c.handleEventVote,
		types.EventStatusType:   c.handleEventStatus,
		types.EventDepositType:  c.handleEventDeposit,
		types.EventRefundType:   c.handleEventRefund,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventProposal(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	proposal := Proposal{
		Id:              ev.Proposal,
		AppId:           ev.AppID,
		ProposerAddress: ev.ProposerAddress,
		Title:           ev.Title,
		Status:          ev.Status.String(),
		Expires:         ev.Expires,
		TotalWeight:     ev.TotalWeight,
		Yes:             ev.Weight,
		NewHeight:       uint64(height),
	}
	return db.Save(&proposal).Error
}

func (c *ChainIndexer) handleEventVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	vote := Vote{
		Proposal:     ev.Proposal,
		VoterAddress: ev.VoterAddress,
		Vote:         ev.Vote.String(),
		Weight:       ev.Weight,
		Height:       uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return err
	}
	return c.updateProposal(db, ev.Proposal, func(p *Proposal) {
		switch ev.Vote {
		case gov.VoteYes:
			p.Yes += ev.Weight
		case gov.VoteNo:
			p.No += ev.Weight
		case gov.VoteAbstain:
			p.Abstain += ev.Weight
		case gov.VoteVeto:
			p.Veto += ev.Weight
		}
	})
}

func (c *ChainIndexer) handleEventStatus(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventStatus(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return c.updateProposal(db, ev.Proposal, func(p *Proposal) {
		p.Status = ev.Status.String()
		p.Yes, p.No, p.Abstain, p.Veto = ev.Yes, ev.No, ev.Abstain, ev.Veto
		if ev.Status.IsTerminal() {
			p.SettleHeight = uint64(height)
		}
	})
}

func (c *ChainIndexer) handleEventDeposit(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventDeposit(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	deposit := Deposit{
		Proposal:         ev.Proposal,
		DepositorAddress: ev.DepositorAddress,
		Amount:           ev.Amount.String(),
		Height:           uint64(height),
	}
	if err := db.Create(&deposit).Error; err != nil {
		return err
	}
	return c.updateProposal(db, ev.Proposal, func(p *Proposal) {
		p.CurrentDeposit = ev.CurrentDeposit
	})
}

func (c *ChainIndexer) handleEventRefund(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventRefund(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return c.updateProposal(db, ev.Proposal, func(p *Proposal) {
		p.Refunded = true
	})
}

// updateProposal applies fn to a stored proposal. Events for proposals the
// indexer never saw are logged and skipped.
func (c *ChainIndexer) updateProposal(db *gorm.DB, id uint64, fn func(p *Proposal)) error {
	var proposal Proposal
	if err := db.First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("proposal not indexed", "proposal", id)
			return nil
		}
		return err
	}
	fn(&proposal)
	return db.Save(&proposal).Error
}

// Start polls the node every interval until ctx is done.
func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sync(ctx); err != nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

// sync indexes every block up to the latest one the node reports.
func (c *ChainIndexer) sync(ctx context.Context) error {
	b, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for b.SyncInfo.LatestBlockHeight >= c.Height {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("indexer syncing", "height", c.Height)
		height := c.Height
		res, err := c.cli.BlockResults(ctx, &height)
		if err != nil {
			return err
		}
		err = c.indexBlock(res, height)
		if err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

// indexBlock writes the events of one block and the new height in a single
// sqlite transaction, so a failed block is retried from scratch.
func (c *ChainIndexer) indexBlock(res *ctypes.ResultBlockResults, height int64) (err error) {
	dbTx := c.db.Begin()
	if err = dbTx.Error; err != nil {
		return
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		} else {
			err = dbTx.Commit().Error
		}
	}()
	for _, txRes := range res.TxsResults {
		if txRes.Code != 0 {
			continue
		}
		for _, event := range txRes.Events {
			if err = c.handleEvent(dbTx, event, height); err != nil {
				return
			}
		}
	}
	err = dbTx.Save(&Height{Id: 1, Height: uint64(height)}).Error
	return
}

func pageArgs(page, pageSize int) (offset, limit int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 0 {
		page = 0
	}
	return page * pageSize, pageSize
}

// ProposalFilter narrows a proposal listing. Zero fields match everything.
type ProposalFilter struct {
	AppId           uint64
	ProposerAddress string
	Status          string
}

func (c *ChainIndexer) getProposals(filter ProposalFilter, page int, pageSize int) ([]Proposal, uint64, error) {
	q := c.db.Model(&Proposal{})
	if filter.AppId != 0 {
		q = q.Where("app_id = ?", filter.AppId)
	}
	if filter.ProposerAddress != "" {
		q = q.Where("proposer_address = ?", filter.ProposerAddress)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := pageArgs(page, pageSize)
	proposals := make([]Proposal, 0)
	if err := q.Order("id desc").Offset(offset).Limit(limit).Find(&proposals).Error; err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	return proposal, err
}

func (c *ChainIndexer) getVotesByProposal(proposalId uint64, page int, pageSize int) ([]Vote, uint64, error) {
	var total uint64
	if err := c.db.Model(&Vote{}).Where("proposal = ?", proposalId).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := pageArgs(page, pageSize)
	votes := make([]Vote, 0)
	err := c.db.Where("proposal = ?", proposalId).Order("id asc").Offset(offset).Limit(limit).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getDepositsByProposal(proposalId uint64) ([]Deposit, error) {
	deposits := make([]Deposit, 0)
	err := c.db.Where("proposal = ?", proposalId).Order("id asc").Find(&deposits).Error
	return deposits, err
}
