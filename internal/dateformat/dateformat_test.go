package dateformat

import (
	"testing"
	"time"
)

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		id   int
		code string
		want bool
	}{
		{0, "", false},
		{1, "", false},
		{14, "", true},
		{22, "", true},
		{49, "", false},
		{57, "", true},
		{164, "yyyy/mm/dd", true},
		{165, "0.00E+00", false},
		{166, `"Date:" 0`, false},
		{167, "[Red]0.00", false},
		{168, "ggge年m月d日", true},
		{169, "General", false},
	}
	for _, tc := range tests {
		if got := IsDateFormat(tc.id, tc.code); got != tc.want {
			t.Errorf("IsDateFormat(%d, %q) = %v, want %v", tc.id, tc.code, got, tc.want)
		}
	}
}

func TestIsTextFormat(t *testing.T) {
	tests := []struct {
		id   int
		code string
		want bool
	}{
		{49, "", true},
		{0, "", false},
		{164, "@", true},
		{164, `"tel "@`, false},
		{49, "0", false},
	}
	for _, tc := range tests {
		if got := IsTextFormat(tc.id, tc.code); got != tc.want {
			t.Errorf("IsTextFormat(%d, %q) = %v, want %v", tc.id, tc.code, got, tc.want)
		}
	}
}

func TestConvertSerial(t *testing.T) {
	tests := []struct {
		name     string
		serial   float64
		date1904 bool
		want     time.Time
		wantErr  bool
	}{
		{name: "serial 1", serial: 1, want: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "phantom leap day", serial: 60, want: time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "serial 61", serial: 61, want: time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "modern date", serial: 45292, want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "noon", serial: 45292.5, want: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{name: "1904 base", serial: 0, date1904: true, want: time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "1904 offset", serial: 43830, date1904: true, want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "negative", serial: -1, wantErr: true},
		{name: "too large", serial: 3e6, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ConvertSerial(tc.serial, tc.date1904)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ConvertSerial(%v) = %v, want %v", tc.serial, got, tc.want)
			}
		})
	}
}
