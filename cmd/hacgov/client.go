package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/calehh/hac-gov/crypto"
	"github.com/calehh/hac-gov/state"
	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
)

var (
	ErrQueryFailed     = errors.New("query failed")
	ErrBroadcastFailed = errors.New("broadcast failed")
)

type signerArguments struct {
	Url    string
	Key    string
	Nonce  uint64
	NoSend bool
}

type govClient struct {
	cli *http.HTTP
}

func newGovClient(url string) (*govClient, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return &govClient{cli: cli}, nil
}

func (c *govClient) chainID(ctx context.Context) (string, error) {
	gres, err := c.cli.Genesis(ctx)
	if err != nil {
		return "", fmt.Errorf("get chain genesis: %w", err)
	}
	return gres.Genesis.ChainID, nil
}

// query sends req as JSON to an app query path and decodes the answer into v.
func (c *govClient) query(ctx context.Context, path string, req any, v any) error {
	var (
		dat []byte
		err error
	)
	switch r := req.(type) {
	case nil:
	case []byte:
		dat = r
	default:
		dat, err = json.Marshal(req)
		if err != nil {
			return err
		}
	}
	res, err := c.cli.ABCIQuery(ctx, path, dat)
	if err != nil {
		return err
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("%w: %s code %d: %s", ErrQueryFailed, path, res.Response.Code, res.Response.Log)
	}
	return json.Unmarshal(res.Response.Value, v)
}

func (c *govClient) account(ctx context.Context, address string) (*state.Account, error) {
	var act state.Account
	if err := c.query(ctx, "/accounts/", []byte(address), &act); err != nil {
		return nil, err
	}
	return &act, nil
}

// signTx fills in the nonce, looking it up when it is zero, and signs btx
// with the key at keyPath.
func (c *govClient) signTx(ctx context.Context, btx *tx.GovTx, keyPath string, nonce uint64) error {
	pv, err := crypto.LoadFilePV(keyPath)
	if err != nil {
		return err
	}
	chainID, err := c.chainID(ctx)
	if err != nil {
		return err
	}
	if nonce == 0 {
		act, err := c.account(ctx, pv.Address())
		if err != nil {
			return err
		}
		nonce = act.Nonce
	}
	return pv.SignTx(btx, chainID, nonce)
}

func (c *govClient) broadcast(ctx context.Context, btx *tx.GovTx) (*ctypes.ResultBroadcastTxCommit, error) {
	dat, err := tx.MarshalGovTx(btx)
	if err != nil {
		return nil, err
	}
	res, err := c.cli.BroadcastTxCommit(ctx, dat)
	if err != nil {
		return nil, err
	}
	if res.CheckTx.Code != 0 {
		return res, fmt.Errorf("%w: check tx code %d: %s", ErrBroadcastFailed, res.CheckTx.Code, res.CheckTx.Log)
	}
	if res.TxResult.Code != 0 {
		return res, fmt.Errorf("%w: tx code %d: %s", ErrBroadcastFailed, res.TxResult.Code, res.TxResult.Log)
	}
	return res, nil
}

// sendTx signs btx and either prints it or broadcasts it and prints the
// result.
func sendTx(args *signerArguments, typ tx.GovTxType, body any) error {
	cli, err := newGovClient(args.Url)
	if err != nil {
		return err
	}
	ctx := context.Background()
	btx := &tx.GovTx{Type: typ, Tx: body}
	if err = cli.signTx(ctx, btx, args.Key, args.Nonce); err != nil {
		return err
	}
	if args.NoSend {
		dat, err := tx.MarshalGovTx(btx)
		if err != nil {
			return err
		}
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.broadcast(ctx, btx)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Hash   string `json:"hash"`
		Height int64  `json:"height"`
		Events any    `json:"events"`
	}{res.Hash.String(), res.Height, res.TxResult.Events})
}

func printJSON(v any) error {
	dat, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(dat))
	return nil
}
