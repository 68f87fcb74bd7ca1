package bakery

import "github.com/prometheus/client_golang/prometheus"

const labelType = "type"

type Metrics struct {
	Produced *prometheus.CounterVec
	Sold     *prometheus.CounterVec
	Consumed *prometheus.CounterVec
	Register prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Produced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bakery_goods_produced_total",
				Help: "Goods produced",
			},
			[]string{labelType},
		),
		Sold: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bakery_goods_sold_total",
				Help: "Goods sold",
			},
			[]string{labelType},
		),
		Consumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bakery_goods_consumed_total",
				Help: "Goods consumed",
			},
			[]string{labelType},
		),
		Register: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bakery_register_total",
				Help: "Cash register total",
			},
		),
	}

	reg.MustRegister(m.Produced, m.Sold, m.Consumed, m.Register)
	return m
}
