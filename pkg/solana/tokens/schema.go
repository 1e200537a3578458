package tokens

import (
	"github.com/code-payments/program-client/pkg/borsh"
)

// Schema names registered by RegisterSchemas.
const (
	FungibleTokenMetadataSchemaName    = "tokens.FungibleTokenMetadata"
	FungibleAssetMetadataSchemaName    = "tokens.FungibleAssetMetadata"
	NonFungibleTokenMetadataSchemaName = "tokens.NonFungibleTokenMetadata"
	TokenDataSchemaName                = "tokens.TokenData"
)

var (
	FungibleTokenMetadataSchema = borsh.NewStruct(
		FungibleTokenMetadataSchemaName,
		borsh.NewField("name", borsh.String()),
		borsh.NewField("symbol", borsh.String()),
		borsh.NewField("uri", borsh.String()),
	)

	FungibleAssetMetadataSchema = borsh.NewStruct(
		FungibleAssetMetadataSchemaName,
		borsh.NewField("name", borsh.String()),
		borsh.NewField("symbol", borsh.String()),
		borsh.NewField("uri", borsh.String()),
		borsh.NewField("uses", borsh.U64()),
	)

	NonFungibleTokenMetadataSchema = borsh.NewStruct(
		NonFungibleTokenMetadataSchemaName,
		borsh.NewField("name", borsh.String()),
		borsh.NewField("symbol", borsh.String()),
		borsh.NewField("uri", borsh.String()),
		borsh.NewField("seller_fee_basis_points", borsh.U16()),
		borsh.NewField("creators_addresses", borsh.Option(borsh.Sequence(borsh.String()))),
		borsh.NewField("collection_address", borsh.Option(borsh.String())),
	)

	// TokenDataSchema is the mint instruction payload.
	TokenDataSchema = borsh.NewUnion(
		TokenDataSchemaName,
		borsh.NewVariant(
			uint32(KindFungible),
			"Fungible",
			borsh.NewField("decimals", borsh.U8()),
			borsh.NewField("initial_supply", borsh.U64()),
			borsh.NewField("should_freeze_after_mint", borsh.Bool()),
			borsh.NewField("metadata", borsh.Composite(FungibleTokenMetadataSchema)),
		),
		borsh.NewVariant(
			uint32(KindFungibleAsset),
			"FungibleAsset",
			borsh.NewField("decimals", borsh.U8()),
			borsh.NewField("quantity", borsh.U64()),
			borsh.NewField("metadata", borsh.Composite(FungibleAssetMetadataSchema)),
		),
		borsh.NewVariant(
			uint32(KindNonFungible),
			"NonFungible",
			borsh.NewField("metadata", borsh.Composite(NonFungibleTokenMetadataSchema)),
		),
	)
)

// RegisterSchemas adds the token layouts to r.
func RegisterSchemas(r *borsh.Registry) error {
	for _, s := range []*borsh.Schema{
		FungibleTokenMetadataSchema,
		FungibleAssetMetadataSchema,
		NonFungibleTokenMetadataSchema,
		TokenDataSchema,
	} {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
