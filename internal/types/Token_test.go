package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenCanonicalID(t *testing.T) {
	tests := []struct {
		name    string
		token   Token
		want    string
		wantErr error
	}{
		{
			name:  "coin form",
			token: Token{Symbol: "APT", Form: AssetFormCoin, CoinType: "0x1::aptos_coin::AptosCoin"},
			want:  "0x1::aptos_coin::AptosCoin",
		},
		{
			name:  "fungible form",
			token: Token{Symbol: "USDC", Form: AssetFormFungible, FungibleAddress: "0xbae2"},
			want:  "0xbae2",
		},
		{
			name:    "coin form without coin type",
			token:   Token{Symbol: "APT", Form: AssetFormCoin},
			wantErr: ErrMissingAssetID,
		},
		{
			name:    "fungible form without address",
			token:   Token{Symbol: "USDC", Form: AssetFormFungible},
			wantErr: ErrMissingAssetID,
		},
		{
			name:    "unknown form",
			token:   Token{Symbol: "???", Form: AssetForm("nft")},
			wantErr: ErrUnknownAssetForm,
		},
		{
			name:    "empty form",
			token:   Token{Symbol: "???"},
			wantErr: ErrUnknownAssetForm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.token.CanonicalID()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTickRangeContains(t *testing.T) {
	r := TickRange{Lower: 400, Upper: 600}

	require.True(t, r.Contains(500))
	require.True(t, r.Contains(401))
	require.True(t, r.Contains(599))
	require.False(t, r.Contains(400), "lower boundary counts as outside")
	require.False(t, r.Contains(600), "upper boundary counts as outside")
	require.False(t, r.Contains(0))
}
