package constants

// Обменник и очередь потока записей.
const (
	ExchangeRecords = "sauto.records.exchange"
	QueueRecords    = "sauto_records"
)

// Ключи маршрутизации
const (
	RoutingKeyRecords = "sauto.records"
)
