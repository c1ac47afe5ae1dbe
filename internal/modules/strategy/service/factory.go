package service

import "captrader/internal/modules/config"

func NewStrategy(cfg *config.Config) Strategy {
	switch cfg.Strategy.Name {
	case "meanrev":
		return NewMeanReversion(cfg)
	default:
		return NewTrendFollowing(cfg)
	}
}
