package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
)

const jsonFormatName = ".json"

// settingsPath is a var so tests can point the guarded save somewhere safe.
var settingsPath = "assets/settings"

type EngineSettings struct {
	CommissionPlan *CommissionPlan `json:"commission_plan,omitempty"`
	DailyAccrual   *DailyAccrual   `json:"daily_accrual,omitempty"`
}

// CommissionPlan is the versioned {level -> percent} table used by the
// distributor. Level 1 is the depositor's direct referrer.
type CommissionPlan struct {
	Version int            `json:"version"`
	Levels  []LevelPercent `json:"levels"`
}

type LevelPercent struct {
	Level   int             `json:"level"`
	Percent decimal.Decimal `json:"percent"`
}

func (p *CommissionPlan) MaxLevel() int {
	return len(p.Levels)
}

// Percent returns the commission percent for a level, zero for levels outside
// the plan.
func (p *CommissionPlan) Percent(lvl int) decimal.Decimal {
	if lvl < 1 || lvl > len(p.Levels) {
		return decimal.Zero
	}

	return p.Levels[lvl-1].Percent
}

func (p *CommissionPlan) UpdateLevel(lvl int, percent decimal.Decimal) {
	if lvl < 1 || lvl > len(p.Levels) {
		return
	}

	p.Levels[lvl-1].Percent = percent
	p.Version++
	SaveEngineSettings()
}

func (p *CommissionPlan) AddLevel(percent decimal.Decimal) {
	p.Levels = append(p.Levels, LevelPercent{
		Level:   len(p.Levels) + 1,
		Percent: percent,
	})
	p.Version++
	SaveEngineSettings()
}

func (p *CommissionPlan) DeleteLevel(lvl int) {
	if lvl < 1 || lvl > len(p.Levels) {
		return
	}

	copy(p.Levels[lvl-1:], p.Levels[lvl:])
	p.Levels = p.Levels[:len(p.Levels)-1]
	p.reindexing()

	p.Version++
	SaveEngineSettings()
}

func (p *CommissionPlan) reindexing() {
	for i := range p.Levels {
		p.Levels[i].Level = i + 1
	}
}

// DailyAccrual holds the trading bonus rate applied to every positive balance
// once per calendar day.
type DailyAccrual struct {
	Percent decimal.Decimal `json:"percent"`
}

var (
	Settings *EngineSettings

	settingsMutex sync.Mutex
)

func UploadEngineSettings() {
	var settings *EngineSettings
	data, err := os.ReadFile(settingsPath + jsonFormatName)
	if err != nil {
		fmt.Println(err)
	}

	err = json.Unmarshal(data, &settings)
	if err != nil || settings == nil {
		settings = DefaultEngineSettings()
	}

	if settings.CommissionPlan == nil {
		settings.CommissionPlan = DefaultEngineSettings().CommissionPlan
	}
	if settings.DailyAccrual == nil {
		settings.DailyAccrual = DefaultEngineSettings().DailyAccrual
	}

	Settings = settings
	SaveEngineSettings()
}

func SaveEngineSettings() {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	data, err := json.MarshalIndent(Settings, "", "  ")
	if err != nil {
		panic(err)
	}

	if err = os.WriteFile(settingsPath+jsonFormatName, data, 0600); err != nil {
		panic(err)
	}
}

// DefaultEngineSettings is the plan shipped with the service: 1% for the two
// nearest levels, 0.5% for the next two, 0.25% for the fifth, and a 0.4%
// daily trading accrual.
func DefaultEngineSettings() *EngineSettings {
	return &EngineSettings{
		CommissionPlan: &CommissionPlan{
			Version: 1,
			Levels: []LevelPercent{
				{Level: 1, Percent: decimal.NewFromFloat(1)},
				{Level: 2, Percent: decimal.NewFromFloat(1)},
				{Level: 3, Percent: decimal.NewFromFloat(0.5)},
				{Level: 4, Percent: decimal.NewFromFloat(0.5)},
				{Level: 5, Percent: decimal.NewFromFloat(0.25)},
			},
		},
		DailyAccrual: &DailyAccrual{
			Percent: decimal.NewFromFloat(0.4),
		},
	}
}
