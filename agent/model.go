package agent

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id              uint64 `gorm:"primary_key;auto_increment:false" json:"id"`
	AppId           uint64 `gorm:"index" json:"app_id"`
	ProposerAddress string `gorm:"index" json:"proposer_address"`
	Title           string `json:"title"`
	Status          string `gorm:"index" json:"status"`
	Expires         string `json:"expires"`
	TotalWeight     uint64 `json:"total_weight"`
	Yes             uint64 `json:"yes"`
	No              uint64 `json:"no"`
	Abstain         uint64 `json:"abstain"`
	Veto            uint64 `json:"veto"`
	CurrentDeposit  uint64 `json:"current_deposit"`
	Refunded        bool   `json:"refunded"`
	NewHeight       uint64 `json:"new_height"`
	SettleHeight    uint64 `json:"settle_height"`
}

type Vote struct {
	Id           uint64 `gorm:"primary_key" json:"id"`
	Proposal     uint64 `gorm:"index" json:"proposal"`
	VoterAddress string `json:"voter_address"`
	Vote         string `json:"vote"`
	Weight       uint64 `json:"weight"`
	Height       uint64 `json:"height"`
}

type Deposit struct {
	Id               uint64 `gorm:"primary_key" json:"id"`
	Proposal         uint64 `gorm:"index" json:"proposal"`
	DepositorAddress string `json:"depositor_address"`
	Amount           string `json:"amount"`
	Height           uint64 `json:"height"`
}
