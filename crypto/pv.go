package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

var _ tx.Signer = (*PV)(nil)

// PV signs governance txs with the key of a cometbft priv_validator_key.json.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func NewPV(priv crypto.PrivKey) *PV {
	return &PV{
		privateKey: priv,
		publicKey:  priv.PubKey(),
	}
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx fills in the key and nonce of btx and signs it for chainID.
func (k *PV) SignTx(btx *tx.GovTx, chainID string, nonce uint64) error {
	btx.Version = tx.GovTxVersion1
	btx.Nonce = nonce
	btx.PubKey = k.PublicKey()
	return tx.Sign(btx, chainID, k)
}
