package prefs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, Record{Volume: 50, Bluetooth: false, Vibration: false, DarkMode: false}, Defaults())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		key     string
		text    string
		want    any
		wantErr error
	}{
		{KeyVolume, "0", 0, nil},
		{KeyVolume, " 100 ", 100, nil},
		{KeyVolume, "101", nil, ErrInvalidValue},
		{KeyVolume, "-1", nil, ErrInvalidValue},
		{KeyVolume, "loud", nil, ErrInvalidValue},
		{KeyBluetooth, "true", true, nil},
		{KeyVibration, "off", false, nil},
		{KeyDarkMode, "ON", true, nil},
		{KeyDarkMode, "maybe", nil, ErrInvalidValue},
		{"key_wifi", "true", nil, ErrUnknownKey},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.key, tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordWithAndGet(t *testing.T) {
	rec, err := Defaults().With(KeyDarkMode, true)
	require.NoError(t, err)
	assert.True(t, rec.DarkMode)

	v, err := rec.Get(KeyDarkMode)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = rec.With(KeyVolume, "60")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = rec.With(KeyBluetooth, 1)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = rec.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestDecodeRecord_MalformedKeepsDefault(t *testing.T) {
	rec, malformed := decodeRecord(map[string][]byte{
		KeyVolume:    []byte("abc"),
		KeyBluetooth: []byte("true"),
		KeyDarkMode:  []byte("yes please"),
		"unrelated":  []byte("x"),
	})

	assert.Equal(t, Record{Volume: 50, Bluetooth: true}, rec)
	assert.ElementsMatch(t, []string{KeyVolume, KeyDarkMode}, malformed)
}

func TestSnapshotEncoding(t *testing.T) {
	snap := NewSnapshot(Record{Volume: 30, Vibration: true})

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"volume_lvl":30`)
	assert.Contains(t, string(data), `"key_vibration":true`)
	assert.Contains(t, string(data), `"saved_at"`)

	out, err := yaml.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), "volume_lvl: 30")
}
