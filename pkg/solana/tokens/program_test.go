package tokens

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/program-client/pkg/borsh"
	"github.com/code-payments/program-client/pkg/solana"
	"github.com/code-payments/program-client/pkg/solana/metadata"
	"github.com/code-payments/program-client/pkg/solana/system"
	"github.com/code-payments/program-client/pkg/solana/token"
)

func TestEncodeData_FungibleAssetLayout(t *testing.T) {
	asset := &FungibleAsset{
		TokenDecimals: 9,
		Quantity:      1000,
		Metadata:      Metadata{Name: "Food", Symbol: "F", URI: ""},
		Uses:          2,
	}

	actual, err := EncodeData(asset)
	require.NoError(t, err)

	var expected []byte
	expected = append(expected, 0x01)                                           // discriminant
	expected = append(expected, 0x09)                                           // decimals
	expected = append(expected, 0xE8, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00) // quantity
	expected = append(expected, 0x04, 0x00, 0x00, 0x00, 'F', 'o', 'o', 'd')     // name
	expected = append(expected, 0x01, 0x00, 0x00, 0x00, 'F')                    // symbol
	expected = append(expected, 0x00, 0x00, 0x00, 0x00)                         // uri
	expected = append(expected, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00) // uses
	assert.Equal(t, expected, actual)
}

func TestData_RoundTrip(t *testing.T) {
	collection := "Dts"

	for _, d := range []Data{
		&FungibleToken{
			TokenDecimals:         9,
			InitialSupply:         1_000_000_000,
			ShouldFreezeAfterMint: true,
			Metadata:              Metadata{Name: "Jogo do Bicho Coin", Symbol: "JBC", URI: "https://example.com/jbc.json"},
		},
		&FungibleAsset{
			Quantity: 1000,
			Metadata: Metadata{Name: "Food", Symbol: "Food", URI: "https://example.com/food.json"},
			Uses:     1000,
		},
		&NonFungibleToken{
			Metadata:             Metadata{Name: "Ferris, the Memory Guardian", Symbol: "Dts#001", URI: "https://example.com/ferris.json"},
			SellerFeeBasisPoints: 500,
		},
		&NonFungibleToken{
			Metadata:             Metadata{Name: "Ferris", Symbol: "Dts#002", URI: "https://example.com/ferris2.json"},
			SellerFeeBasisPoints: 250,
			CreatorsAddresses:    []string{"creator1", "creator2"},
			CollectionAddress:    &collection,
		},
		&NonFungibleToken{
			CreatorsAddresses: []string{},
		},
	} {
		encoded, err := EncodeData(d)
		require.NoError(t, err)
		assert.EqualValues(t, d.Kind(), encoded[0])

		decoded, err := DecodeData(encoded)
		require.NoError(t, err)
		assert.Equal(t, d, decoded)
	}
}

func TestData_Semantics(t *testing.T) {
	fungible := &FungibleToken{TokenDecimals: 6, InitialSupply: 100}
	assert.EqualValues(t, 6, fungible.Decimals())
	assert.EqualValues(t, 100, fungible.Amount())
	assert.False(t, fungible.FreezeAfterMint())

	asset := &FungibleAsset{TokenDecimals: 0, Quantity: 5}
	assert.EqualValues(t, 5, asset.Amount())
	assert.True(t, asset.FreezeAfterMint())

	nft := &NonFungibleToken{}
	assert.EqualValues(t, 0, nft.Decimals())
	assert.EqualValues(t, 1, nft.Amount())
	assert.True(t, nft.FreezeAfterMint())
}

func TestDecodeData_Invalid(t *testing.T) {
	_, err := DecodeData([]byte{3})
	assert.ErrorIs(t, err, borsh.ErrUnknownVariant)

	_, err = DecodeData([]byte{0, 9})
	assert.ErrorIs(t, err, borsh.ErrTruncatedBuffer)

	_, err = EncodeData(nil)
	assert.Error(t, err)
}

func TestMint_Fungible(t *testing.T) {
	keys := generateKeys(t, 3)
	program, mint, authority := keys[0], keys[1], keys[2]

	d := &FungibleToken{TokenDecimals: 9, InitialSupply: 10, Metadata: Metadata{Name: "a", Symbol: "b", URI: "c"}}

	ix, addresses, err := Mint(program, mint, authority, d)
	require.NoError(t, err)

	expectedData, err := EncodeData(d)
	require.NoError(t, err)
	assert.Equal(t, expectedData, ix.Data)
	assert.Equal(t, program, ix.Program)

	ata, err := token.GetAssociatedAccount(authority, mint)
	require.NoError(t, err)
	metadataAddress, _, err := metadata.GetMetadataAddress(mint)
	require.NoError(t, err)

	assert.Equal(t, mint, addresses.Mint)
	assert.Equal(t, ata, addresses.TokenAccount)
	assert.Equal(t, metadataAddress, addresses.Metadata)
	assert.Nil(t, addresses.MasterEdition)

	expected := []solana.AccountMeta{
		{PublicKey: mint, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsWritable: true},
		{PublicKey: authority, IsSigner: true},
		{PublicKey: metadataAddress, IsWritable: true},
		{PublicKey: system.RentSysVar},
		{PublicKey: system.ProgramKey[:]},
		{PublicKey: token.ProgramKey},
		{PublicKey: token.AssociatedTokenAccountProgramKey},
		{PublicKey: metadata.ProgramKey},
	}
	assert.Equal(t, expected, ix.Accounts)

	assert.Equal(t, []ed25519.PublicKey{mint, authority}, ix.Signers())
}

func TestMint_NonFungible(t *testing.T) {
	keys := generateKeys(t, 3)
	program, mint, authority := keys[0], keys[1], keys[2]

	ix, addresses, err := Mint(program, mint, authority, &NonFungibleToken{SellerFeeBasisPoints: 500})
	require.NoError(t, err)

	edition, _, err := metadata.GetMasterEditionAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, edition, addresses.MasterEdition)

	require.Len(t, ix.Accounts, 10)
	assert.Equal(t, edition, ix.Accounts[4].PublicKey)
	assert.True(t, ix.Accounts[4].IsWritable)
	assert.False(t, ix.Accounts[4].IsSigner)
	assert.True(t, bytes.Equal(metadata.ProgramKey, ix.Accounts[9].PublicKey))
}

func TestRegisterSchemas(t *testing.T) {
	r := borsh.NewRegistry()
	require.NoError(t, RegisterSchemas(r))

	s, err := r.Resolve(TokenDataSchemaName)
	require.NoError(t, err)
	assert.True(t, s.IsUnion())

	_, err = r.SizeOf(TokenDataSchemaName)
	assert.ErrorIs(t, err, borsh.ErrNotStaticallySized)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
