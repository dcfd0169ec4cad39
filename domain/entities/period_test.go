package entities

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var periodNow = time.Date(2026, time.February, 17, 15, 4, 5, 0, time.Local)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input string
		want  Period
	}{
		{"", Period{Year: 2026, Month: 2, Day: 17}},
		{"2025-11", Period{Year: 2025, Month: 11}},
		{"202511", Period{Year: 2025, Month: 11}},
		{"2025/11/03", Period{Year: 2025, Month: 11, Day: 3}},
		{"20251103", Period{Year: 2025, Month: 11, Day: 3}},
		{"2025-13", Period{Identifier: "2025-13"}},
		{"client-kim", Period{Identifier: "client-kim"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePeriod(tt.input, periodNow))
		})
	}
}

func TestPeriodLabel(t *testing.T) {
	day := Period{Year: 2026, Month: 2, Day: 17}
	month := Period{Year: 2025, Month: 11}

	assert.Equal(t, "20260217", day.Label(LayoutDay, periodNow))
	assert.Equal(t, "202511", month.Label(LayoutDay, periodNow))
	assert.Equal(t, filepath.Join("2025", "11"), month.Label(LayoutMonth, periodNow))
	assert.Equal(t, "2025년11월_홈택스신고자료_20260217_150405", month.Label(LayoutStamped, periodNow))
}

func TestPeriodIdentifierLabel(t *testing.T) {
	assert.Equal(t, "kim_2025", Period{Identifier: "kim/2025"}.Label(LayoutMonth, periodNow))
	assert.Equal(t, "unlabelled", Period{Identifier: ".."}.Label(LayoutDay, periodNow))
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout("Month")
	require.NoError(t, err)
	assert.Equal(t, LayoutMonth, layout)

	layout, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutDay, layout)

	_, err = ParseLayout("weekly")
	assert.Error(t, err)
}
