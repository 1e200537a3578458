package solana

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Environment string

const (
	EnvironmentLocal Environment = "http://localhost:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol = 1_000_000_000

// FormatSol renders a lamport amount as SOL with four decimal places.
func FormatSol(lamports int64) string {
	return strconv.FormatFloat(float64(lamports)/LamportsPerSol, 'f', 4, 64)
}

// ResolveEndpoint maps a cluster moniker, as accepted by the solana CLI, to an
// RPC endpoint. Anything that isn't a known moniker is returned as-is so a
// full URL can be supplied directly.
func ResolveEndpoint(nameOrURL string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(nameOrURL)) {
	case "":
		return "", errors.New("endpoint is required")
	case "l", "local", "localhost":
		return string(EnvironmentLocal), nil
	case "d", "dev", "devnet":
		return string(EnvironmentDev), nil
	case "t", "test", "testnet":
		return string(EnvironmentTest), nil
	case "m", "main", "mainnet", "mainnet-beta":
		return string(EnvironmentProd), nil
	}
	return strings.TrimSpace(nameOrURL), nil
}
