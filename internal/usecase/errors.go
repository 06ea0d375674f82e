package usecase

import "github.com/riskibarqy/cartola-ingest/internal/domain/marketdata"

var (
	ErrInvalidInput  = marketdata.ErrInvalidInput
	ErrConfiguration = marketdata.ErrConfiguration
)
