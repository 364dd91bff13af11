// Command mmr maintains an append only merkle mountain range log and
// produces roots, inclusion proofs and signed checkpoints over it.
//
// Usage:
//
//	mmr [-config mmr.toml] <command> [args]
//
// Commands:
//
//	append <data>...          append each argument as a leaf, print indices
//	root                      print the current size and root
//	prove <leaf-index>        write a CBOR inclusion proof
//	verify <proof-file> <data>  check a proof for the given payload
//	checkpoint                sign the current (size, root) state
//
// The store and hash primitive come from the TOML config; the defaults are a
// flat file log hashed with blake2b-256.
package main

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/paritytech/arber/checkpoint"
	"github.com/paritytech/arber/codec"
	"github.com/paritytech/arber/mmr"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <append|root|prove|verify|checkpoint> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	if err := run(logger, cfg, flag.Args()); err != nil {
		logger.Fatal("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func run(logger *zap.Logger, cfg Config, args []string) error {
	hasher, err := cfg.hasher()
	if err != nil {
		return err
	}
	store, closeStore, err := cfg.openStore(hasher.Size())
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	m, err := mmr.New(store, hasher)
	if err != nil {
		return err
	}

	switch args[0] {
	case "append":
		return runAppend(logger, m, args[1:])
	case "root":
		return runRoot(m)
	case "prove":
		return runProve(m, args[1:])
	case "verify":
		return runVerify(m, hasher, args[1:])
	case "checkpoint":
		return runCheckpoint(logger, cfg, m, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runAppend(logger *zap.Logger, m *mmr.MMR, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("append: at least one payload required")
	}
	for _, payload := range args {
		i, err := m.Append([]byte(payload))
		if err != nil {
			return err
		}
		logger.Info("appended leaf",
			zap.Uint64("index", i),
			zap.Uint64("size", m.Size()))
		fmt.Println(i)
	}
	return nil
}

func runRoot(m *mmr.MMR) error {
	root, err := m.Root()
	if err != nil {
		return err
	}
	fmt.Printf("size=%d leaves=%d root=%s\n", m.Size(), m.LeafCount(), hex.EncodeToString(root))
	return nil
}

func runProve(m *mmr.MMR, args []string) error {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	out := fs.String("out", "", "write the CBOR proof here instead of hex to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("prove: exactly one leaf index required")
	}
	leafIndex, err := strconv.ParseUint(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("prove: leaf index: %w", err)
	}

	proof, err := m.GenProof(mmr.MMRIndex(leafIndex))
	if err != nil {
		return err
	}
	c, err := codec.New()
	if err != nil {
		return err
	}
	data, err := c.MarshalProof(proof)
	if err != nil {
		return err
	}

	if *out == "" {
		fmt.Println(hex.EncodeToString(data))
		return nil
	}
	return os.WriteFile(*out, data, 0o600)
}

func runVerify(m *mmr.MMR, hasher mmr.Hasher, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	rootHex := fs.String("root", "", "hex root to verify against; defaults to the log's root at the proof's size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("verify: proof file and payload required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	c, err := codec.New()
	if err != nil {
		return err
	}
	proof, err := c.UnmarshalProof(data, hasher.Size())
	if err != nil {
		return err
	}

	var root []byte
	if *rootHex != "" {
		if root, err = hex.DecodeString(*rootHex); err != nil {
			return fmt.Errorf("verify: root: %w", err)
		}
	} else {
		if root, err = m.RootAtSize(proof.MMRSize); err != nil {
			return err
		}
	}

	ok, err := proof.VerifyInclusion(hasher, []byte(fs.Arg(1)), root)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("verification: FAILED")
		os.Exit(1)
	}
	fmt.Println("verification: OK")
	return nil
}

func runCheckpoint(logger *zap.Logger, cfg Config, m *mmr.MMR, args []string) error {
	fs := flag.NewFlagSet("checkpoint", flag.ContinueOnError)
	out := fs.String("out", "checkpoint.cbor", "write the signed checkpoint here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.KeyFile == "" {
		return fmt.Errorf("checkpoint: key_file not configured")
	}

	key, err := loadSigningKey(cfg.KeyFile)
	if err != nil {
		return err
	}
	c, err := codec.New()
	if err != nil {
		return err
	}
	signer, err := checkpoint.NewSigner(key, c)
	if err != nil {
		return err
	}

	state, err := checkpoint.NewState(m)
	if err != nil {
		return err
	}
	signed, err := signer.Sign(state)
	if err != nil {
		return err
	}

	logger.Info("signed checkpoint",
		zap.Uint64("size", state.MMRSize),
		zap.String("root", hex.EncodeToString(state.Root)),
		zap.String("out", *out))
	return os.WriteFile(*out, signed, 0o600)
}

func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM block", path)
	}
	switch block.Type {
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		ecKey, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%s: not an ECDSA key", path)
		}
		return ecKey, nil
	default:
		return nil, fmt.Errorf("%s: unsupported PEM block %q", path, block.Type)
	}
}
