package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Instruments is the tradable universe with per-symbol lot sizes and a
// fallback for anything not listed (webhook trades can name symbols the
// table does not know).
type Instruments struct {
	Symbols        []string           `yaml:"symbols"`
	LotSizes       map[string]float64 `yaml:"lot_sizes"`
	DefaultLotSize float64            `yaml:"default_lot_size"`
}

func (i *Instruments) LotSize(symbol string) float64 {
	if size, ok := i.LotSizes[symbol]; ok && size > 0 {
		return size
	}
	return i.DefaultLotSize
}

func NewInstruments(cfg *Config) (*Instruments, error) {
	file, err := os.Open(cfg.InstrumentsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultInstruments(), nil
		}
		return nil, fmt.Errorf("open instruments file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	instruments := defaultInstruments()
	if err := yaml.NewDecoder(file).Decode(instruments); err != nil {
		return nil, fmt.Errorf("decode instruments file: %w", err)
	}
	if instruments.DefaultLotSize <= 0 {
		instruments.DefaultLotSize = 0.01
	}
	return instruments, nil
}

func defaultInstruments() *Instruments {
	return &Instruments{
		Symbols: []string{
			"BTCUSD", "ETHUSD", "XRPUSD", "LTCUSD", "ADAUSD",
			"SOLUSD", "DOGEUSD", "DOTUSD", "MATICUSD", "BNBUSD",
		},
		LotSizes: map[string]float64{
			"BTCUSD": 0.001, "ETHUSD": 0.01, "ADAUSD": 0.5, "XRPUSD": 100,
			"LTCUSD": 1, "SOLUSD": 10, "DOGEUSD": 1000, "DOTUSD": 10,
			"MATICUSD": 100, "BNBUSD": 1,
		},
		DefaultLotSize: 0.01,
	}
}
