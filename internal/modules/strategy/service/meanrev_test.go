package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"captrader/internal/models"
	"captrader/internal/modules/config"
)

func meanrevConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Strategy.Name = "meanrev"
	cfg.Strategy.ATRPeriod = 3
	return cfg
}

func TestMeanRevHoldsOnShortHistory(t *testing.T) {
	s := NewMeanReversion(meanrevConfig())
	assert.Nil(t, s.Evaluate("ETHUSD", histFromBids(10, 11), 1000))
}

func TestMeanRevBuysAboveMean(t *testing.T) {
	s := NewMeanReversion(meanrevConfig())
	intent := s.Evaluate("ETHUSD", histFromBids(10, 10, 13), 1000)
	require.NotNil(t, intent)
	assert.Equal(t, models.SideBuy, intent.Side)
	assert.Equal(t, 13.0, intent.ReferencePrice)
	assert.Zero(t, intent.Size, "sizing is left to the lot table")
	assert.Equal(t, "SCALP", intent.Mode)
}

func TestMeanRevSellsBelowMean(t *testing.T) {
	s := NewMeanReversion(meanrevConfig())
	intent := s.Evaluate("ETHUSD", histFromBids(13, 13, 10), 1000)
	require.NotNil(t, intent)
	assert.Equal(t, models.SideSell, intent.Side)
}

func TestStrategyFactory(t *testing.T) {
	cfg := meanrevConfig()
	assert.Equal(t, "meanrev", NewStrategy(cfg).Name())

	cfg2 := trendConfig()
	cfg2.Strategy.Name = "trend"
	assert.Equal(t, "trend", NewStrategy(cfg2).Name())
}
