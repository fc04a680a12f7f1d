// Command miner repeatedly fetches a block template from a node, searches
// for a satisfying nonce, and submits the mined block back. It is a thin
// driver around internal/mining's bounded, stateless search loop.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/mining"
	"github.com/maxmynter/nanochain/internal/node"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
)

// stepsPerPoll bounds how much work Mine does per template before the
// miner checks in with the node again, mirroring the budgeted-polling
// idiom internal/mining.Mine is built around.
const stepsPerPoll = 1_000_000

func main() {
	nodeAddr := flag.String("node", "127.0.0.1:9420", "address of the node to mine against")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	priv, err := walletcrypto.GeneratePrivateKey()
	if err != nil {
		logger.Fatal("generate miner keypair", zap.Error(err))
	}
	pub := priv.PublicKey()

	ctx := context.Background()
	client := node.New(nil, logger)

	for {
		block, err := fetchTemplate(ctx, client, *nodeAddr, pub)
		if err != nil {
			logger.Warn("fetch template failed, retrying", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		found, err := mining.Mine(&block.Header, stepsPerPoll)
		if err != nil {
			logger.Warn("mine failed", zap.Error(err))
			continue
		}
		if !found {
			continue
		}

		if err := submitTemplate(ctx, client, *nodeAddr, block); err != nil {
			logger.Warn("submit block failed", zap.Error(err))
			continue
		}
		logger.Info("mined and submitted block", zap.Uint64("nonce", block.Header.Nonce))
	}
}

func fetchTemplate(ctx context.Context, client *node.Node, addr string, pub walletcrypto.PublicKey) (entity.Block, error) {
	conn, err := client.Connect(ctx, addr)
	if err != nil {
		return entity.Block{}, err
	}
	defer conn.Close()

	env, err := node.Request(conn, node.MsgFetchTemplate, node.FetchTemplatePayload{Pubkey: pub})
	if err != nil {
		return entity.Block{}, err
	}
	reply, err := node.DecodePayload[node.TemplatePayload](env.Payload)
	if err != nil {
		return entity.Block{}, err
	}
	return reply.Block, nil
}

func submitTemplate(ctx context.Context, client *node.Node, addr string, block entity.Block) error {
	conn, err := client.Connect(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	// SubmitTemplate is one-way: the node sends no reply frame.
	frame, err := node.Encode(node.MsgSubmitTemplate, node.SubmitTemplatePayload{Block: block})
	if err != nil {
		return err
	}
	return node.WriteFrame(conn, frame)
}
