package onchain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	BaseChainID            int64 = 8453
	DefaultContractAddress       = "0xe620d6855b97c357c316b1c43e1bd805dbf7660e"

	trackMethod = "trackProject"
	trackerABI  = `[{
		"name": "trackProject",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [{"name": "projectName", "type": "string"}],
		"outputs": []
	}]`
)

// TrackValue is 0.0001 ETH in wei.
var TrackValue = big.NewInt(100_000_000_000_000)

var ErrEmptyProject = errors.New("project is empty")

// Tx is an unsigned transaction request for the user's wallet.
type Tx struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
}

type Tracker struct {
	contract common.Address
	abi      abi.ABI
}

func NewTracker(contractAddress string) (*Tracker, error) {
	contractAddress = strings.TrimSpace(contractAddress)
	if contractAddress == "" {
		contractAddress = DefaultContractAddress
	}

	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(trackerABI))
	if err != nil {
		return nil, fmt.Errorf("parse tracker ABI: %w", err)
	}

	return &Tracker{
		contract: common.HexToAddress(contractAddress),
		abi:      parsed,
	}, nil
}

// TrackTx encodes a trackProject(project) call carrying TrackValue on Base.
func (t *Tracker) TrackTx(project string) (Tx, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return Tx{}, ErrEmptyProject
	}

	data, err := t.abi.Pack(trackMethod, project)
	if err != nil {
		return Tx{}, fmt.Errorf("pack %s call: %w", trackMethod, err)
	}

	return Tx{
		To:      t.contract.Hex(),
		Data:    hexutil.Encode(data),
		Value:   hexutil.EncodeBig(TrackValue),
		ChainID: BaseChainID,
	}, nil
}
