package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Gateway --dir ../domain/marketdata --output domain/marketdata --outpkg marketdatamock --filename gateway_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name FeedSource --dir ../domain/marketdata --output domain/marketdata --outpkg marketdatamock --filename feed_source_mock.go
