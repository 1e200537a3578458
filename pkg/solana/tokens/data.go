package tokens

import (
	"github.com/pkg/errors"

	"github.com/code-payments/program-client/pkg/borsh"
)

// Kind is the TokenData discriminant.
type Kind uint8

const (
	KindFungible Kind = iota
	KindFungibleAsset
	KindNonFungible
)

func (k Kind) String() string {
	switch k {
	case KindFungible:
		return "fungible"
	case KindFungibleAsset:
		return "fungible_asset"
	case KindNonFungible:
		return "non_fungible"
	}
	return "unknown"
}

// Data is one of FungibleToken, FungibleAsset or NonFungibleToken.
type Data interface {
	Kind() Kind

	// Decimals is the precision the mint is initialized with.
	Decimals() uint8

	// Amount is the number of base units minted to the authority.
	Amount() uint64

	// FreezeAfterMint reports whether the minted token account is frozen
	// once the supply is minted.
	FreezeAfterMint() bool

	enum() borsh.Enum
}

type Metadata struct {
	Name   string
	Symbol string
	URI    string
}

func (m Metadata) record() borsh.Record {
	return borsh.Record{
		"name":   m.Name,
		"symbol": m.Symbol,
		"uri":    m.URI,
	}
}

type FungibleToken struct {
	TokenDecimals         uint8
	InitialSupply         uint64
	ShouldFreezeAfterMint bool
	Metadata              Metadata
}

func (t *FungibleToken) Kind() Kind            { return KindFungible }
func (t *FungibleToken) Decimals() uint8       { return t.TokenDecimals }
func (t *FungibleToken) Amount() uint64        { return t.InitialSupply }
func (t *FungibleToken) FreezeAfterMint() bool { return t.ShouldFreezeAfterMint }

func (t *FungibleToken) enum() borsh.Enum {
	return borsh.Enum{
		Discriminant: uint32(KindFungible),
		Fields: borsh.Record{
			"decimals":                 t.TokenDecimals,
			"initial_supply":           t.InitialSupply,
			"should_freeze_after_mint": t.ShouldFreezeAfterMint,
			"metadata":                 t.Metadata.record(),
		},
	}
}

type FungibleAsset struct {
	TokenDecimals uint8
	Quantity      uint64
	Metadata      Metadata
	Uses          uint64
}

func (a *FungibleAsset) Kind() Kind            { return KindFungibleAsset }
func (a *FungibleAsset) Decimals() uint8       { return a.TokenDecimals }
func (a *FungibleAsset) Amount() uint64        { return a.Quantity }
func (a *FungibleAsset) FreezeAfterMint() bool { return true }

func (a *FungibleAsset) enum() borsh.Enum {
	metadata := a.Metadata.record()
	metadata["uses"] = a.Uses

	return borsh.Enum{
		Discriminant: uint32(KindFungibleAsset),
		Fields: borsh.Record{
			"decimals": a.TokenDecimals,
			"quantity": a.Quantity,
			"metadata": metadata,
		},
	}
}

type NonFungibleToken struct {
	Metadata             Metadata
	SellerFeeBasisPoints uint16
	CreatorsAddresses    []string
	CollectionAddress    *string
}

func (n *NonFungibleToken) Kind() Kind            { return KindNonFungible }
func (n *NonFungibleToken) Decimals() uint8       { return 0 }
func (n *NonFungibleToken) Amount() uint64        { return 1 }
func (n *NonFungibleToken) FreezeAfterMint() bool { return true }

func (n *NonFungibleToken) enum() borsh.Enum {
	metadata := n.Metadata.record()
	metadata["seller_fee_basis_points"] = n.SellerFeeBasisPoints

	metadata["creators_addresses"] = nil
	if n.CreatorsAddresses != nil {
		creators := make([]any, len(n.CreatorsAddresses))
		for i, c := range n.CreatorsAddresses {
			creators[i] = c
		}
		metadata["creators_addresses"] = creators
	}

	metadata["collection_address"] = nil
	if n.CollectionAddress != nil {
		metadata["collection_address"] = *n.CollectionAddress
	}

	return borsh.Enum{
		Discriminant: uint32(KindNonFungible),
		Fields: borsh.Record{
			"metadata": metadata,
		},
	}
}

// EncodeData returns the mint instruction payload for d.
func EncodeData(d Data) ([]byte, error) {
	if d == nil {
		return nil, errors.New("token data is required")
	}
	return borsh.Encode(TokenDataSchema, d.enum())
}

// DecodeData parses a mint instruction payload.
func DecodeData(b []byte) (Data, error) {
	v, err := borsh.Decode(TokenDataSchema, b)
	if err != nil {
		return nil, err
	}

	e := v.(borsh.Enum)
	metadata := e.Fields.Get("metadata").(borsh.Record)
	base := Metadata{
		Name:   metadata.Get("name").(string),
		Symbol: metadata.Get("symbol").(string),
		URI:    metadata.Get("uri").(string),
	}

	switch Kind(e.Discriminant) {
	case KindFungible:
		return &FungibleToken{
			TokenDecimals:         e.Fields.Get("decimals").(uint8),
			InitialSupply:         e.Fields.Get("initial_supply").(uint64),
			ShouldFreezeAfterMint: e.Fields.Get("should_freeze_after_mint").(bool),
			Metadata:              base,
		}, nil
	case KindFungibleAsset:
		return &FungibleAsset{
			TokenDecimals: e.Fields.Get("decimals").(uint8),
			Quantity:      e.Fields.Get("quantity").(uint64),
			Metadata:      base,
			Uses:          metadata.Get("uses").(uint64),
		}, nil
	case KindNonFungible:
		nft := &NonFungibleToken{
			Metadata:             base,
			SellerFeeBasisPoints: metadata.Get("seller_fee_basis_points").(uint16),
		}
		if creators, ok := metadata.Get("creators_addresses").([]any); ok {
			nft.CreatorsAddresses = make([]string, len(creators))
			for i, c := range creators {
				nft.CreatorsAddresses[i] = c.(string)
			}
		}
		if collection, ok := metadata.Get("collection_address").(string); ok {
			nft.CollectionAddress = &collection
		}
		return nft, nil
	}

	return nil, errors.Wrapf(borsh.ErrUnknownVariant, "token data discriminant %d", e.Discriminant)
}
