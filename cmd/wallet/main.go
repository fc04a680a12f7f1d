// Command wallet is a minimal CLI for sending a payment: it generates a
// fresh keypair, fetches its spendable UTXOs from a node, builds a
// transaction paying a destination public key, signs every input, and
// submits it. Flag/config parsing stays intentionally thin — this exists
// to exercise the chain, node, and walletstore/walletconfig packages end
// to end, not to be a real wallet UI.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/maxmynter/nanochain/internal/chain/entity"
	"github.com/maxmynter/nanochain/internal/node"
	"github.com/maxmynter/nanochain/internal/walletconfig"
	"github.com/maxmynter/nanochain/internal/walletcrypto"
	"github.com/maxmynter/nanochain/internal/walletstore"
)

func main() {
	configPath := flag.String("config", walletconfig.DefaultPath, "path to wallet config TOML")
	to := flag.String("to", "", "SEC1-compressed hex public key to pay")
	amount := flag.Uint64("amount", 0, "amount to send, in satoshis")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := walletconfig.Load(*configPath)
	if err != nil {
		logger.Fatal("load wallet config", zap.Error(err))
	}
	if *to == "" || *amount == 0 {
		fmt.Fprintln(os.Stderr, "usage: wallet --config <path> --to <hex pubkey> --amount <satoshis>")
		os.Exit(2)
	}

	destBytes, err := hex.DecodeString(*to)
	if err != nil {
		logger.Fatal("invalid --to public key", zap.Error(err))
	}
	dest, err := walletcrypto.PublicKeyFromSEC1(destBytes)
	if err != nil {
		logger.Fatal("parse --to public key", zap.Error(err))
	}

	ring := walletstore.New()
	pub, err := ring.Generate()
	if err != nil {
		logger.Fatal("generate wallet key", zap.Error(err))
	}

	ctx := context.Background()
	client := node.New(nil, logger)

	conn, err := client.Connect(ctx, cfg.NodeAddr)
	if err != nil {
		logger.Fatal("connect to node", zap.Error(err), zap.String("addr", cfg.NodeAddr))
	}
	env, err := node.Request(conn, node.MsgFetchUTXOs, node.FetchUTXOsPayload{Pubkey: pub})
	conn.Close()
	if err != nil {
		logger.Fatal("fetch utxos", zap.Error(err))
	}
	utxos, err := node.DecodePayload[node.UTXOsPayload](env.Payload)
	if err != nil {
		logger.Fatal("decode utxos reply", zap.Error(err))
	}

	tx, err := buildPayment(ring, pub, utxos.UTXOs, *amount, dest)
	if err != nil {
		logger.Fatal("build payment", zap.Error(err))
	}

	conn, err = client.Connect(ctx, cfg.NodeAddr)
	if err != nil {
		logger.Fatal("connect to node", zap.Error(err))
	}
	defer conn.Close()
	// SubmitTransaction is one-way: the node sends no reply frame.
	frame, err := node.Encode(node.MsgSubmitTransaction, node.SubmitTransactionPayload{Tx: tx})
	if err != nil {
		logger.Fatal("encode transaction", zap.Error(err))
	}
	if err := node.WriteFrame(conn, frame); err != nil {
		logger.Fatal("submit transaction", zap.Error(err))
	}

	logger.Info("payment submitted", zap.Uint64("amount", *amount))
}

// buildPayment picks spendable (unreserved) UTXOs up to amount, signs each
// chosen input, and creates a change output back to the payer when the
// selected inputs overshoot amount.
func buildPayment(ring *walletstore.Keyring, pub walletcrypto.PublicKey, utxos []node.UTXOEntry, amount uint64, dest walletcrypto.PublicKey) (entity.Transaction, error) {
	var inputs []entity.TransactionInput
	var total uint64

	for _, u := range utxos {
		if u.Reserved || total >= amount {
			continue
		}
		outHash, err := u.Output.Hash()
		if err != nil {
			return entity.Transaction{}, err
		}
		sig, err := ring.Sign(pub, outHash)
		if err != nil {
			return entity.Transaction{}, err
		}
		inputs = append(inputs, entity.TransactionInput{PrevTransactionOutputHash: outHash, Signature: sig})
		total += u.Output.Value
	}

	if total < amount {
		return entity.Transaction{}, fmt.Errorf("wallet: insufficient funds: have %d, want %d", total, amount)
	}

	outputs := []entity.TransactionOutput{entity.NewTransactionOutput(amount, dest)}
	if change := total - amount; change > 0 {
		outputs = append(outputs, entity.NewTransactionOutput(change, pub))
	}

	return entity.Transaction{Inputs: inputs, Outputs: outputs}, nil
}
