package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/content-hash-registry/api/clients"
	"github.com/ruteri/content-hash-registry/cmd/flags"
	"github.com/ruteri/content-hash-registry/cryptoutils"
	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/ruteri/content-hash-registry/registry"
	"github.com/urfave/cli/v2"
)

var flagAlgo = &cli.StringFlag{
	Name:  "algo",
	Value: string(cryptoutils.SHA256),
	Usage: "fingerprint algorithm: sha256, keccak256 or blake2b",
}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Create, append to and list content hash registries",
		Flags: append([]cli.Flag{
			flags.ServerAddrFlag,
			flags.RpcAddrFlag,
			flags.ChainIDFlag,
			flags.PrivateKeyFlag,
			flags.RegistryAddrFlag,
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "deploy a new registry owned by --private-key and print its address",
				Action: func(cCtx *cli.Context) error {
					if cCtx.IsSet(flags.RpcAddrFlag.Name) {
						return errors.New("create is only supported against a registry server, deploy contracts/FileRegistry.sol with your own tooling")
					}
					client, err := serverClient(cCtx)
					if err != nil {
						return err
					}
					addr, err := client.Create(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Println(addr.String())
					return nil
				},
			},
			{
				Name:      "append",
				Usage:     "record a 32-byte hex hash",
				ArgsUsage: "<hash>",
				Action: func(cCtx *cli.Context) error {
					hash, err := interfaces.NewContentHashFromHex(cCtx.Args().First())
					if err != nil {
						return err
					}
					return appendHash(cCtx, hash)
				},
			},
			{
				Name:      "add-file",
				Usage:     "fingerprint a file and record its hash",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{flagAlgo},
				Action: func(cCtx *cli.Context) error {
					hash, err := fingerprint(cCtx)
					if err != nil {
						return err
					}
					if err := appendHash(cCtx, hash); err != nil {
						return err
					}
					fmt.Println(hash.String())
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "print all recorded hashes in insertion order",
				Action: func(cCtx *cli.Context) error {
					reg, err := openRegistry(cCtx)
					if err != nil {
						return err
					}
					entries, err := reg.List(cCtx.Context)
					if err != nil {
						return err
					}
					for _, entry := range entries {
						fmt.Println(entry.String())
					}
					return nil
				},
			},
			{
				Name:  "owner",
				Usage: "print the registry owner",
				Action: func(cCtx *cli.Context) error {
					reg, err := openRegistry(cCtx)
					if err != nil {
						return err
					}
					owner, err := reg.Owner(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Println(owner.String())
					return nil
				},
			},
			{
				Name:      "hash",
				Usage:     "print the fingerprint of a file without recording it",
				ArgsUsage: "<path>",
				Flags:     []cli.Flag{flagAlgo},
				Action: func(cCtx *cli.Context) error {
					hash, err := fingerprint(cCtx)
					if err != nil {
						return err
					}
					fmt.Println(hash.String())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func fingerprint(cCtx *cli.Context) (interfaces.ContentHash, error) {
	if cCtx.Args().Len() != 1 {
		return interfaces.ContentHash{}, errors.New("expected exactly one file path")
	}
	algo, err := cryptoutils.ParseHashAlgorithm(cCtx.String(flagAlgo.Name))
	if err != nil {
		return interfaces.ContentHash{}, err
	}
	return cryptoutils.FingerprintFile(cCtx.Args().First(), algo)
}

func appendHash(cCtx *cli.Context, hash interfaces.ContentHash) error {
	reg, err := openRegistry(cCtx)
	if err != nil {
		return err
	}
	if err := reg.Append(cCtx.Context, hash); err != nil {
		return err
	}
	flags.SetupLogger(cCtx).Debug("Hash recorded", "hash", hash.String())
	return nil
}

func serverClient(cCtx *cli.Context) (*clients.RegistryClient, error) {
	if !cCtx.IsSet(flags.PrivateKeyFlag.Name) {
		return clients.NewRegistryClient(cCtx.String(flags.ServerAddrFlag.Name), nil), nil
	}
	key, err := cryptoutils.LoadPrivateKey(cCtx.String(flags.PrivateKeyFlag.Name))
	if err != nil {
		return nil, err
	}
	return clients.NewRegistryClient(cCtx.String(flags.ServerAddrFlag.Name), key), nil
}

// openRegistry returns the registry named by --registry, reached through
// the chain when --rpc-addr is set and through the registry server otherwise.
func openRegistry(cCtx *cli.Context) (interfaces.Registry, error) {
	addr, err := interfaces.NewContractAddressFromHex(cCtx.String(flags.RegistryAddrFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("--registry: %w", err)
	}

	if !cCtx.IsSet(flags.RpcAddrFlag.Name) {
		client, err := serverClient(cCtx)
		if err != nil {
			return nil, err
		}
		return client.At(addr), nil
	}

	return onchainRegistry(cCtx.Context, cCtx, addr)
}

func onchainRegistry(ctx context.Context, cCtx *cli.Context, addr interfaces.ContractAddress) (interfaces.Registry, error) {
	logger := flags.SetupLogger(cCtx)
	rpcAddr := cCtx.String(flags.RpcAddrFlag.Name)

	logger.Debug("Connecting to Ethereum RPC", "address", rpcAddr)
	ethClient, err := ethclient.DialContext(ctx, rpcAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}

	var auth *bind.TransactOpts
	if cCtx.IsSet(flags.PrivateKeyFlag.Name) {
		key, err := cryptoutils.LoadPrivateKey(cCtx.String(flags.PrivateKeyFlag.Name))
		if err != nil {
			return nil, err
		}
		auth, err = bind.NewKeyedTransactorWithChainID(key, big.NewInt(cCtx.Int64(flags.ChainIDFlag.Name)))
		if err != nil {
			return nil, err
		}
		auth.Context = ctx
	}

	return registry.NewRegistryFactory(ethClient, ethClient, auth).RegistryFor(addr)
}
