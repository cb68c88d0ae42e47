package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenURI(t *testing.T) {
	tests := []struct {
		name         string
		imageHash    string
		metadataHash string
		want         string
	}{
		{"Metadata hash wins", "QmImage", "QmMeta", "ipfs://QmMeta"},
		{"Image hash fallback", "QmImage", "", "ipfs://QmImage"},
		{"Prefix preserved", "", "ipfs://QmMeta", "ipfs://QmMeta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenURI(tt.imageHash, tt.metadataHash))
		})
	}
}

func TestCollectionSymbol(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Long name truncated", "Sunrise Over Lagos", "SUNRI"},
		{"Short name", "Ode", "ODE"},
		{"Punctuation skipped", "a-b c!", "ABC"},
		{"Digits kept", "Art 2049", "ART20"},
		{"Multi-byte letters counted as one", "Über Äther", "ÜBERÄ"},
		{"CJK name keeps five characters", "星空下的湖", "星空下的湖"},
		{"Empty falls back", "", "ART"},
		{"Only punctuation falls back", "!!!", "ART"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollectionSymbol(tt.in))
		})
	}
}
