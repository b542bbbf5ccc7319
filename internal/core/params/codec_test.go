package params

import (
	"errors"
	"testing"

	errs "github.com/mizone/danmaku-insight/internal/core/errors"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Params
	}{
		{
			name:  "typical scrolling comment",
			input: "23.5,1,25,16777215,1609459200,0,test_id,user_hash_123",
			expected: Params{
				Time:      23.5,
				Mode:      ModeScroll,
				FontSize:  25,
				Color:     16777215,
				SentAt:    1609459200,
				Pool:      0,
				DanmakuID: "test_id",
				UserHash:  "user_hash_123",
			},
		},
		{
			name:  "empty user hash",
			input: "0,5,18,255,1609459200,1,abc123,",
			expected: Params{
				Time:      0,
				Mode:      ModeTop,
				FontSize:  18,
				Color:     255,
				SentAt:    1609459200,
				Pool:      1,
				DanmakuID: "abc123",
				UserHash:  "",
			},
		},
		{
			name:  "trailing extra fields ignored",
			input: "12.25,4,12,65280,1700000000,2,idtoken,hash,extra,more",
			expected: Params{
				Time:      12.25,
				Mode:      ModeBottom,
				FontSize:  12,
				Color:     65280,
				SentAt:    1700000000,
				Pool:      2,
				DanmakuID: "idtoken",
				UserHash:  "hash",
			},
		},
		{
			name:  "unknown mode preserved",
			input: "1.5,99,25,0,1600000000,0,x,y",
			expected: Params{
				Time:      1.5,
				Mode:      Mode(99),
				FontSize:  25,
				Color:     0,
				SentAt:    1600000000,
				Pool:      0,
				DanmakuID: "x",
				UserHash:  "y",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", tt.input, err)
			}

			if got != tt.expected {
				t.Errorf("Decode(%q) = %+v, want %+v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty string", input: ""},
		{name: "three fields", input: "1,2,3"},
		{name: "seven fields", input: "1.0,1,25,255,1600000000,0,idonly"},
		{name: "non numeric time", input: "abc,1,25,255,1600000000,0,id,hash"},
		{name: "non numeric mode", input: "1.0,x,25,255,1600000000,0,id,hash"},
		{name: "non numeric font size", input: "1.0,1,big,255,1600000000,0,id,hash"},
		{name: "color above 24 bits", input: "1.0,1,25,16777216,1600000000,0,id,hash"},
		{name: "negative color", input: "1.0,1,25,-1,1600000000,0,id,hash"},
		{name: "non numeric timestamp", input: "1.0,1,25,255,now,0,id,hash"},
		{name: "non numeric pool", input: "1.0,1,25,255,1600000000,p,id,hash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			if err == nil {
				t.Fatalf("Decode(%q) expected error, got nil", tt.input)
			}

			if !errors.Is(err, errs.ErrMalformedParams) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedParams", tt.input, err)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{
			name: "typical record",
			params: Params{
				Time:      23.5,
				Mode:      ModeScroll,
				FontSize:  25,
				Color:     16777215,
				SentAt:    1609459200,
				Pool:      0,
				DanmakuID: "test_id",
				UserHash:  "user_hash_123",
			},
		},
		{
			name: "fractional offset",
			params: Params{
				Time:      0.125,
				Mode:      ModeAdvanced,
				FontSize:  18,
				Color:     255,
				SentAt:    1700000001,
				Pool:      2,
				DanmakuID: "a",
				UserHash:  "b",
			},
		},
		{
			name: "empty string fields",
			params: Params{
				Time:     60,
				Mode:     ModeTop,
				FontSize: 12,
				Color:    0,
				SentAt:   0,
				Pool:     0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.params)

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(Encode(%+v)) error: %v", tt.params, err)
			}

			if decoded != tt.params {
				t.Errorf("round trip = %+v, want %+v", decoded, tt.params)
			}
		})
	}
}

func TestEncodeCanonicalString(t *testing.T) {
	input := "23.5,1,25,16777215,1609459200,0,test_id,user_hash_123"

	decoded, err := Decode(input)
	if err != nil {
		t.Fatalf("Decode(%q) error: %v", input, err)
	}

	if got := Encode(decoded); got != input {
		t.Errorf("Encode(Decode(%q)) = %q, want original", input, got)
	}
}
