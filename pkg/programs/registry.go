// Package programs resolves on-chain program ids by name.
package programs

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/program-client/pkg/wallet"
)

// DefaultDeployDir is where the program build toolchain writes program keypairs.
const DefaultDeployDir = "contracts/target/deploy"

var (
	ErrProgramNotFound = errors.New("program not found")
	ErrInvalidManifest = errors.New("invalid program manifest")
)

// Registry resolves a program name to its deployed address.
type Registry interface {
	Lookup(name string) (ed25519.PublicKey, error)
}

// StaticRegistry is a fixed set of program ids.
type StaticRegistry map[string]ed25519.PublicKey

// Lookup implements Registry.Lookup
func (r StaticRegistry) Lookup(name string) (ed25519.PublicKey, error) {
	address, ok := r[name]
	if !ok {
		return nil, errors.Wrap(ErrProgramNotFound, name)
	}
	return address, nil
}

// DeployDirRegistry reads program ids from the <name>-keypair.json files left
// in a deploy directory.
type DeployDirRegistry struct {
	log *logrus.Entry
	dir string

	mu    sync.Mutex
	cache map[string]ed25519.PublicKey
}

func NewDeployDirRegistry(dir string) *DeployDirRegistry {
	if dir == "" {
		dir = DefaultDeployDir
	}

	return &DeployDirRegistry{
		log:   logrus.StandardLogger().WithField("type", "programs/deploy_dir"),
		dir:   dir,
		cache: make(map[string]ed25519.PublicKey),
	}
}

// Lookup implements Registry.Lookup
func (r *DeployDirRegistry) Lookup(name string) (ed25519.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if address, ok := r.cache[name]; ok {
		return address, nil
	}

	path := filepath.Join(r.dir, name+"-keypair.json")
	key, err := wallet.ReadKeypairFile(path)
	if errors.Is(err, wallet.ErrKeypairNotFound) {
		return nil, errors.Wrapf(ErrProgramNotFound, "%s: no keypair at %s", name, path)
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to load program %s", name)
	}

	address := key.Public().(ed25519.PublicKey)
	r.cache[name] = address

	r.log.WithFields(logrus.Fields{
		"method":  "Lookup",
		"program": name,
		"address": base58.Encode(address),
	}).Debug("loaded program id")

	return address, nil
}

// Names lists the programs with a keypair in the deploy directory.
func (r *DeployDirRegistry) Names() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", r.dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "-keypair.json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), "-keypair.json"))
	}
	sort.Strings(names)
	return names, nil
}

type manifestEntry struct {
	Address string `toml:"address"`
	Keypair string `toml:"keypair"`
}

type manifestFile struct {
	Programs map[string]manifestEntry `toml:"programs"`
}

// LoadManifest reads a TOML manifest of the form
//
//	[programs.calculator]
//	address = "<base58 program id>"
//
//	[programs.tokens]
//	keypair = "contracts/target/deploy/tokens-keypair.json"
//
// Relative keypair paths are resolved against the manifest's directory.
func LoadManifest(path string) (StaticRegistry, error) {
	var raw manifestFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidManifest, "%s: %v", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Wrapf(ErrInvalidManifest, "%s: unknown key %s", path, undecoded[0].String())
	}

	registry := make(StaticRegistry, len(raw.Programs))
	for name, entry := range raw.Programs {
		address := strings.TrimSpace(entry.Address)
		keypair := strings.TrimSpace(entry.Keypair)

		switch {
		case address != "" && keypair != "":
			return nil, errors.Wrapf(ErrInvalidManifest, "%s: program %s has both address and keypair", path, name)
		case address != "":
			decoded, err := base58.Decode(address)
			if err != nil || len(decoded) != ed25519.PublicKeySize {
				return nil, errors.Wrapf(ErrInvalidManifest, "%s: program %s has invalid address %q", path, name, address)
			}
			registry[name] = decoded
		case keypair != "":
			if !filepath.IsAbs(keypair) {
				keypair = filepath.Join(filepath.Dir(path), keypair)
			}
			key, err := wallet.ReadKeypairFile(keypair)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to load program %s", name)
			}
			registry[name] = key.Public().(ed25519.PublicKey)
		default:
			return nil, errors.Wrapf(ErrInvalidManifest, "%s: program %s has no address or keypair", path, name)
		}
	}

	return registry, nil
}
