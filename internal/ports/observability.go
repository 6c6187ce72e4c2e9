package ports

import "github.com/edemonpore/caller/internal/domain"

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	// RecordDataLoss is called once per snapshot that reports device-side
	// loss; kind is "buffer_overflow" or "instrument".
	RecordDataLoss(kind string, status domain.DeviceStatus)
}

type Field struct {
	Key   string
	Value any
}
