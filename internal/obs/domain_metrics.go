package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics holds the checkout pricing collectors.
type DomainMetrics struct {
	// PromoValidations counts promo code evaluations by result (valid or the error kind).
	PromoValidations *prometheus.CounterVec
	// PromoRedemptions counts redemption attempts by result.
	PromoRedemptions *prometheus.CounterVec
	// ShippingQuotes counts shipping quotes by zone.
	ShippingQuotes *prometheus.CounterVec
	// ShippingCost records quoted shipping fees in Taka.
	ShippingCost *prometheus.HistogramVec
}

var (
	domainOnce    sync.Once
	domainMetrics *DomainMetrics
)

// NewDomainMetrics builds and registers the domain collectors on reg.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		PromoValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "Count of promo code evaluations by outcome.",
		}, []string{"result"}),
		PromoRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_redemptions_total",
			Help:      "Count of promo code redemption attempts by outcome.",
		}, []string{"result"}),
		ShippingQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_quotes_total",
			Help:      "Count of shipping quotes by delivery zone.",
		}, []string{"zone"}),
		ShippingCost: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shipping_quote_cost_taka",
			Help:      "Distribution of quoted shipping fees in Taka.",
			Buckets:   []float64{0, 50, 60, 70, 90, 110, 130, 150, 200, 300},
		}, []string{"zone"}),
	}
	m.PromoValidations = register(reg, m.PromoValidations)
	m.PromoRedemptions = register(reg, m.PromoRedemptions)
	m.ShippingQuotes = register(reg, m.ShippingQuotes)
	m.ShippingCost = register(reg, m.ShippingCost)
	return m
}

// MustRegisterDomainMetrics initialises the process wide domain collectors once.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	domainOnce.Do(func() {
		domainMetrics = NewDomainMetrics(namespace, reg)
	})
	return domainMetrics
}

// ObservePromoValidation records a promo evaluation outcome. Safe on a nil receiver.
func (m *DomainMetrics) ObservePromoValidation(result string) {
	if m == nil {
		return
	}
	m.PromoValidations.WithLabelValues(result).Inc()
}

// ObservePromoRedemption records a redemption outcome. Safe on a nil receiver.
func (m *DomainMetrics) ObservePromoRedemption(result string) {
	if m == nil {
		return
	}
	m.PromoRedemptions.WithLabelValues(result).Inc()
}

// ObserveShippingQuote records a quoted fee for zone. Safe on a nil receiver.
func (m *DomainMetrics) ObserveShippingQuote(zone string, cost float64) {
	if m == nil {
		return
	}
	m.ShippingQuotes.WithLabelValues(zone).Inc()
	m.ShippingCost.WithLabelValues(zone).Observe(cost)
}
