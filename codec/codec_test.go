package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shardPayload map[string]map[string]int

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestEncodeDecode_AllCompressions(t *testing.T) {
	in := shardPayload{
		"north east": {"5": 4},
		"graffiti":   {"7": 1, "8": 255},
	}

	for _, comp := range []Compression{CompressionNone, CompressionZSTD, CompressionLZ4, CompressionGzip} {
		for _, c := range []Codec{JSON{}, GoJSON{}} {
			t.Run(comp.String()+"/"+c.Name(), func(t *testing.T) {
				data, err := Encode(c, comp, in)
				require.NoError(t, err)

				var out shardPayload
				require.NoError(t, Decode(c, comp, data, &out))
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestDecode_CorruptPayload(t *testing.T) {
	var out shardPayload
	err := Decode(nil, CompressionZSTD, []byte("not zstd"), &out)
	assert.Error(t, err)

	err = Decode(nil, CompressionNone, []byte("{"), &out)
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	tests := map[string]Compression{
		"":     CompressionNone,
		"none": CompressionNone,
		"zstd": CompressionZSTD,
		".zst": CompressionZSTD,
		"lz4":  CompressionLZ4,
		"gz":   CompressionGzip,
	}
	for in, want := range tests {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, want.Suffix(), got.Suffix())
	}

	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, ".zst", CompressionZSTD.Suffix())
	assert.Equal(t, "", CompressionNone.Suffix())
}

func TestMustMarshal(t *testing.T) {
	assert.JSONEq(t, `{"a":{"1":2}}`, string(MustMarshal(nil, shardPayload{"a": {"1": 2}})))
}
