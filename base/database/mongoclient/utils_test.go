package mongoclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/auction/base/ptr"
)

func TestMakeBsonM(t *testing.T) {
	type PayTokenPatch struct {
		Symbol   *string `bson:"symbol,omitempty"`
		Decimals *int32  `bson:"decimals,omitempty"`
		Feed     string  `bson:"feed"`
		Enabled  bool    `bson:"enabled"`
		Internal string  `bson:"-"`
	}

	patchable := &PayTokenPatch{}
	patchable.Symbol = ptr.String("")
	patchable.Decimals = ptr.Int32(6)
	patchable.Enabled = true
	patchable.Internal = "ignored"

	updater, err := MakeBsonM(patchable)

	assert.NoError(t, err)
	assert.Equal(
		t,
		bson.M{
			"symbol":   "",
			"decimals": int32(6),
			// feed is empty, so ignore
			"enabled": true,
		},
		updater,
	)
}

func TestMakeBsonMRejectsNonStruct(t *testing.T) {
	_, err := MakeBsonM("0xabc")
	assert.ErrorIs(t, err, ErrNotStruct)

	var nilPatch *struct {
		Feed string `bson:"feed"`
	}
	_, err = MakeBsonM(nilPatch)
	assert.ErrorIs(t, err, ErrNotStruct)
}
