package matching

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomStereoCompatible(t *testing.T) {
	cases := []struct {
		q, t StereoDescriptor
		want bool
	}{
		{StereoNone, StereoNone, true},
		{StereoNone, StereoR, true},
		{StereoNone, StereoM, true},
		{StereoR, StereoR, true},
		{StereoR, StereoS, false},
		{StereoS, StereoR, false},
		{StereoR, StereoNone, false},
		{StereoR, StereoEither, false},
		{StereoR, StereoM, false},
		{StereoM, StereoM, true},
		{StereoM, StereoP, false},
		{StereoP, StereoS, false},
		{StereoEither, StereoR, true},
		{StereoEither, StereoS, true},
		{StereoEither, StereoM, true},
		{StereoEither, StereoP, true},
		{StereoEither, StereoEither, true},
		{StereoEither, StereoNone, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AtomStereoCompatible(tc.q, tc.t), "%s vs %s", tc.q, tc.t)
	}
}

func TestBondStereoCompatible(t *testing.T) {
	cases := []struct {
		q, t StereoDescriptor
		want bool
	}{
		{StereoNone, StereoE, true},
		{StereoZ, StereoZ, true},
		{StereoZ, StereoE, false},
		{StereoE, StereoNone, false},
		{StereoEither, StereoZ, true},
		{StereoEither, StereoE, true},
		{StereoEither, StereoNone, false},
		{StereoE, StereoEither, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BondStereoCompatible(tc.q, tc.t), "%s vs %s", tc.q, tc.t)
	}
}

func TestStereoDescriptor_Class(t *testing.T) {
	assert.Equal(t, ClassCentral, StereoR.Class())
	assert.Equal(t, ClassCentral, StereoS.Class())
	assert.Equal(t, ClassAxial, StereoM.Class())
	assert.Equal(t, ClassAxial, StereoP.Class())
	assert.Equal(t, ClassDoubleBond, StereoZ.Class())
	assert.Equal(t, ClassWildcard, StereoEither.Class())
	assert.Equal(t, ClassNone, StereoNone.Class())

	assert.True(t, StereoR.validOnAtom())
	assert.False(t, StereoZ.validOnAtom())
	assert.True(t, StereoE.validOnBond())
	assert.False(t, StereoS.validOnBond())
	assert.True(t, StereoEither.validOnAtom())
	assert.True(t, StereoEither.validOnBond())
}

func TestParseStereo(t *testing.T) {
	for i, name := range stereoNames {
		d, err := ParseStereo(name)
		require.NoError(t, err)
		assert.Equal(t, StereoDescriptor(i), d)
	}
	d, err := ParseStereo(" r ")
	require.NoError(t, err)
	assert.Equal(t, StereoR, d)

	d, err = ParseStereo("")
	require.NoError(t, err)
	assert.Equal(t, StereoNone, d)

	_, err = ParseStereo("cis")
	assert.Error(t, err)
}

func TestStereoDescriptor_JSON(t *testing.T) {
	type holder struct {
		Stereo StereoDescriptor `json:"stereo"`
	}
	data, err := json.Marshal(holder{Stereo: StereoEither})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stereo":"EITHER"}`, string(data))

	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"stereo":"z"}`), &h))
	assert.Equal(t, StereoZ, h.Stereo)

	assert.Error(t, json.Unmarshal([]byte(`{"stereo":"Q"}`), &h))
	assert.Equal(t, "StereoDescriptor(42)", StereoDescriptor(42).String())
}

//Personal.AI order the ending
