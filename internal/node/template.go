package node

import (
	"time"

	"github.com/maxmynter/nanochain/internal/chain"
	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/pkg/chainhash"
)

// BuildTemplate assembles an unmined block template for FetchTemplate
// (spec.md §4.6): a coinbase paying block_reward+expected_fees to pub,
// followed by up to BlockTransactionCap-1 highest-fee mempool
// transactions, with prev-hash/target/merkle-root/timestamp filled in and
// nonce left at zero for the miner to search.
func BuildTemplate(bc *chain.Blockchain, pub walletcrypto.PublicKey) (entity.Block, error) {
	included := bc.TopFeeTransactions(chain.BlockTransactionCap - 1)
	fees := bc.ExpectedFees(included)
	reward := chain.BlockReward(uint64(bc.Height()))

	coinbase := entity.Transaction{
		Outputs: []entity.TransactionOutput{entity.NewTransactionOutput(reward+fees, pub)},
	}
	txs := append([]entity.Transaction{coinbase}, included...)

	prevHash, err := bc.LastBlockHash()
	if err != nil {
		return entity.Block{}, err
	}

	header := entity.BlockHeader{
		Timestamp:     entity.TimestampFromTime(time.Now()),
		Nonce:         0,
		PrevBlockHash: prevHash,
		Target:        bc.Target(),
	}
	block := entity.Block{Header: header, Transactions: txs}

	root, err := chainhash.Calculate(block.MerkleHashers())
	if err != nil {
		return entity.Block{}, err
	}
	block.Header.MerkleRoot = root

	return block, nil
}
