package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/calehh/hac-gov/gov"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

const GovModuleName = "gov"
const DefaultPower = 1000

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc mirrors the cometbft genesis file with the governance config
// as app_state.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// GovGenesis is the app_state of the genesis file.
type GovGenesis struct {
	Config *gov.Config `json:"config"`
}

func DefaultGovGenesis() *GovGenesis {
	return &GovGenesis{
		Config: &gov.Config{
			Threshold: gov.ThresholdQuorum{
				Threshold: gov.Percent(50),
				Quorum:    gov.Percent(33),
			},
			Target: "",
		},
	}
}

func (g *GovGenesis) Validate() error {
	if g.Config == nil {
		return errors.New("genesis app_state has no governance config")
	}
	return g.Config.Validate()
}

// ParseGovGenesis reads app_state. An empty app_state yields the default.
func ParseGovGenesis(appState []byte) (g *GovGenesis, err error) {
	if len(appState) == 0 {
		g = DefaultGovGenesis()
		return
	}
	g = new(GovGenesis)
	err = json.Unmarshal(appState, g)
	if err != nil {
		return nil, err
	}
	err = g.Validate()
	if err != nil {
		return nil, err
	}
	return
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	if len(ag.AppState) == 0 {
		dat, err := json.Marshal(DefaultGovGenesis())
		if err != nil {
			return err
		}
		ag.AppState = dat
	}
	_, err := ParseGovGenesis(ag.AppState)
	return err
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}
