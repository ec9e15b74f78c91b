package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubjectID(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "accepts numeric student id", input: "20215001"},
		{name: "accepts mixed id with separators", input: "HCMUTE-2021_5001.a"},
		{name: "rejects empty", input: "", wantErr: true},
		{name: "rejects whitespace", input: "2021 5001", wantErr: true},
		{name: "rejects control characters", input: "2021\n5001", wantErr: true},
		{name: "rejects overlong", input: string(make([]byte, 65)), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ParseSubjectID(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.input, id.String())
		})
	}
}

func TestParseHexIdentifiers(t *testing.T) {
	t.Run("object id lowercased", func(t *testing.T) {
		id, err := ParseObjectID("0xAB12")
		require.NoError(t, err)
		assert.Equal(t, "0xab12", id.String())
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAccountAddress("ab12")
		require.Error(t, err)
	})

	t.Run("rejects non-hex body", func(t *testing.T) {
		_, err := ParseObjectID("0xzz")
		require.Error(t, err)
	})

	t.Run("rejects bare prefix", func(t *testing.T) {
		_, err := ParseAccountAddress("0x")
		require.Error(t, err)
	})
}

func TestStorageRef(t *testing.T) {
	t.Run("round trips scheme and id", func(t *testing.T) {
		ref := NewStorageRef("walrus", "abc123")
		assert.Equal(t, "walrus://abc123", ref.String())
		assert.Equal(t, "walrus", ref.Scheme())
		assert.Equal(t, "abc123", ref.ContentID())
	})

	t.Run("parse rejects missing separator", func(t *testing.T) {
		_, err := ParseStorageRef("walrus-abc123")
		require.Error(t, err)
	})

	t.Run("parse rejects empty identifier", func(t *testing.T) {
		_, err := ParseStorageRef("walrus://")
		require.Error(t, err)
	})
}
