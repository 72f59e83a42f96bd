package agent

import (
	"context"
	"errors"
	"net/http"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// Service serves the indexer read model over HTTP.
type Service struct {
	logger  cmtlog.Logger
	engine  *gin.Engine
	indexer *ChainIndexer
	srv     *http.Server
}

func NewService(listenAddr string, indexer *ChainIndexer, logger cmtlog.Logger) *Service {
	r := gin.New()
	r.Use(gin.Recovery())
	s := &Service{
		logger:  logger.With("module", "service"),
		engine:  r,
		indexer: indexer,
	}
	s.srv = &http.Server{
		Addr:    listenAddr,
		Handler: r,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getDeposits", s.handleGetDeposits)
	return s
}

// Start blocks until the server fails or Stop is called.
func (s *Service) Start() error {
	s.logger.Info("service listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Service) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type ProposalInfo struct {
	Proposal Proposal  `json:"proposal"`
	Deposits []Deposit `json:"deposits"`
	VoteCnt  uint64    `json:"voteCnt"`
}

type GetProposalsReq struct {
	ProposalId      uint64 `json:"proposalId"`
	AppId           uint64 `json:"appId"`
	ProposerAddress string `json:"proposer"`
	Status          string `json:"status"`
	Page            int    `json:"page"`
	PageSize        int    `json:"pageSize"`
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.ProposalId != 0 {
		proposal, err := s.indexer.getProposalById(requestData.ProposalId)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	filter := ProposalFilter{
		AppId:           requestData.AppId,
		ProposerAddress: requestData.ProposerAddress,
		Status:          requestData.Status,
	}
	proposals, total, err := s.indexer.getProposals(filter, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, proposal := range proposals {
		info, err := s.proposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) proposalInfo(proposal Proposal) (ProposalInfo, error) {
	deposits, err := s.indexer.getDepositsByProposal(proposal.Id)
	if err != nil {
		return ProposalInfo{}, err
	}
	_, cnt, err := s.indexer.getVotesByProposal(proposal.Id, 0, 1)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{
		Proposal: proposal,
		Deposits: deposits,
		VoteCnt:  cnt,
	}, nil
}

type GetVotesReq struct {
	ProposalId uint64 `json:"proposalId"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId is required"})
		return
	}
	votes, total, err := s.indexer.getVotesByProposal(requestData.ProposalId, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}

type GetDepositsReq struct {
	ProposalId uint64 `json:"proposalId"`
}

type GetDepositsResponse struct {
	Deposits []Deposit `json:"deposits"`
}

func (s *Service) handleGetDeposits(c *gin.Context) {
	var requestData GetDepositsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId is required"})
		return
	}
	deposits, err := s.indexer.getDepositsByProposal(requestData.ProposalId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetDepositsResponse{Deposits: deposits})
}
