package numfmt

import (
	"testing"
	"time"
)

func TestGeneralPrecision(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{45498.666666666664, "45498.66667"},
		{2.09003333333333, "2.090033333"},
		{6.041666666666667, "6.041666667"},
		{0.1 + 0.2, "0.3"},
		{-1.5, "-1.5"},
		{9012345678, "9012345678"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.v, 0, ""); got != tt.want {
			t.Errorf("FormatNumber(%v, General) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		id     int
		fmtStr string
		want   string
	}{
		{"fixed two", 3.14159, 2, "", "3.14"},
		{"thousands", 1234567, 3, "", "1,234,567"},
		{"thousands fixed", 1234.5, 4, "", "1,234.50"},
		{"percent", 0.25, 9, "", "25%"},
		{"zero padded", 42, 164, "00000", "00042"},
		{"custom one decimal", 2.5, 165, "0.0", "2.5"},
		{"negative single section", -7, 1, "", "-7"},
		{"text format", 90123, 49, "", "90123"},
		{"unknown id", 1.25, 150, "", "1.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.v, tt.id, tt.fmtStr); got != tt.want {
				t.Errorf("FormatNumber(%v, %d, %q) = %q, want %q", tt.v, tt.id, tt.fmtStr, got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2024, 1, 5, 13, 7, 9, 0, time.UTC)
	tests := []struct {
		name   string
		t      time.Time
		id     int
		fmtStr string
		want   string
	}{
		{"builtin 14", day, 14, "", "01-05-24"},
		{"custom iso", day, 164, "yyyy-mm-dd", "2024-01-05"},
		{"time of day", noon, 21, "", "13:07:09"},
		{"general falls back to iso", day, 0, "", "2024-01-05"},
		{"general with time", noon, 0, "", "2024-01-05T13:07:09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(tt.t, tt.id, tt.fmtStr); got != tt.want {
				t.Errorf("FormatTime(%v, %d, %q) = %q, want %q", tt.t, tt.id, tt.fmtStr, got, tt.want)
			}
		})
	}
}

func TestEraOf(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC), "令和"},
		{time.Date(2019, 4, 30, 0, 0, 0, 0, time.UTC), "平成"},
		{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), "昭和"},
	}
	for _, tt := range tests {
		e, ok := eraOf(tt.t)
		if !ok || e.names[2] != tt.want {
			t.Errorf("eraOf(%v) = %v, %v; want %s", tt.t, e.names, ok, tt.want)
		}
	}
	if _, ok := eraOf(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("eraOf before Meiji should fail")
	}
	if got := renderDateToken("EE", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false, false); got != "06" {
		t.Errorf("EE for 2024 = %q, want 06", got)
	}
}

func TestInsertThousandsSep(t *testing.T) {
	for in, want := range map[string]string{"1": "1", "123": "123", "1234": "1,234", "123456": "123,456", "1234567": "1,234,567"} {
		if got := insertThousandsSep(in); got != want {
			t.Errorf("insertThousandsSep(%q) = %q, want %q", in, got, want)
		}
	}
}
