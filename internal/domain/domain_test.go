package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNapConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NapConfig
		wantErr bool
	}{
		{"preset length", NapConfig{Duration: 20 * time.Minute, Source: SourceFocus}, false},
		{"one minute", NapConfig{Duration: time.Minute, Source: SourceCustom}, false},
		{"upper bound", NapConfig{Duration: 10800 * time.Second, Source: SourceCustom}, false},
		{"zero", NapConfig{Duration: 0, Source: SourceCustom}, true},
		{"negative", NapConfig{Duration: -time.Minute, Source: SourceCustom}, true},
		{"below minimum", NapConfig{Duration: 59 * time.Second, Source: SourceCustom}, true},
		{"above maximum", NapConfig{Duration: 10801 * time.Second, Source: SourceCustom}, true},
		{"fractional seconds", NapConfig{Duration: time.Minute + 500*time.Millisecond, Source: SourceCustom}, true},
		{"unknown source", NapConfig{Duration: time.Minute, Source: "later"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPresetConfig(t *testing.T) {
	cfg, err := PresetConfig("focus")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, cfg.Duration)
	assert.Equal(t, "Power Focus", cfg.Label)

	cfg, err = PresetConfig("Deep Recharge")
	require.NoError(t, err)
	assert.Equal(t, SourceRecharge, cfg.Source)

	_, err = PresetConfig("siesta")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCustomConfig(t *testing.T) {
	cfg, err := CustomConfig(25)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, cfg.Duration)
	assert.Equal(t, SourceCustom, cfg.Source)

	_, err = CustomConfig(0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = CustomConfig(181)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 1}, d.AddDays(2))
	assert.Equal(t, Date{Year: 2023, Month: time.December, Day: 31}, Date{Year: 2024, Month: time.January, Day: 1}.AddDays(-1))
	assert.Equal(t, time.Wednesday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
	assert.Equal(t, "2024-02-28", d.String())
}

func TestDateRangeContains(t *testing.T) {
	from := Date{Year: 2024, Month: time.June, Day: 3}
	r := DateRange{From: from, To: from.AddDays(6)}

	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(from.AddDays(6)))
	assert.False(t, r.Contains(from.AddDays(-1)))
	assert.False(t, r.Contains(from.AddDays(7)))
}

func TestProfileJSONShape(t *testing.T) {
	day := Date{Year: 2024, Month: time.June, Day: 3}
	p := Profile{Name: "Ada", XP: 100, TotalNaps: 1, TotalMinutes: 20, CurrentStreak: 1, LastNapDate: &day}

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","xp":100,"totalNaps":1,"totalMinutes":20,"currentStreak":1,"lastNapDate":"2024-06-03"}`, string(raw))

	var fresh Profile
	require.NoError(t, json.Unmarshal([]byte(`{"name":"","xp":0,"totalNaps":0,"totalMinutes":0,"currentStreak":0,"lastNapDate":null}`), &fresh))
	assert.Nil(t, fresh.LastNapDate)
	assert.False(t, fresh.Onboarded())
}

func TestParseChoice(t *testing.T) {
	cfg, err := ParseChoice(" 45 ")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.Duration)
	assert.Equal(t, SourceCustom, cfg.Source)

	cfg, err = ParseChoice("Quick Refresh")
	require.NoError(t, err)
	assert.Equal(t, SourceRefresh, cfg.Source)

	_, err = ParseChoice("0")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = ParseChoice("forever")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
