package scheduling

import "math"

// ServiceSnapshot — снимок услуги на момент записи.
type ServiceSnapshot struct {
	ID                string
	DurationMin       int
	PriceCents        int64
	CommissionPercent float64
}

// AggregateOptions — переопределения уровня записи.
// Явная цена всегда побеждает сумму услуг (договорная цена).
type AggregateOptions struct {
	PriceOverrideCents        *int64
	CommissionOverridePercent *float64
}

// Aggregate — итог по мультиуслуговой записи: один бронируемый интервал.
type Aggregate struct {
	DurationMin         int
	PriceCents          int64
	CommissionBaseCents int64
}

// AggregateServices сводит набор услуг в {длительность, цена, база комиссии}.
// Длительности и цены суммируются; комиссия считается подолево по услугам,
// если не задан общий процент на запись — тогда он применяется к итоговой цене.
func AggregateServices(services []ServiceSnapshot, opts AggregateOptions) (Aggregate, error) {
	if len(services) == 0 {
		return Aggregate{}, ErrEmptyServiceList
	}

	var agg Aggregate
	for _, svc := range services {
		if svc.DurationMin < 0 || svc.PriceCents < 0 {
			return Aggregate{}, ErrInvalidInput
		}
		if svc.CommissionPercent < 0 || svc.CommissionPercent > 100 {
			return Aggregate{}, ErrInvalidInput
		}
		agg.DurationMin += svc.DurationMin
		agg.PriceCents += svc.PriceCents
	}

	if opts.PriceOverrideCents != nil {
		if *opts.PriceOverrideCents < 0 {
			return Aggregate{}, ErrInvalidInput
		}
		agg.PriceCents = *opts.PriceOverrideCents
	}

	if opts.CommissionOverridePercent != nil {
		pct := *opts.CommissionOverridePercent
		if pct < 0 || pct > 100 {
			return Aggregate{}, ErrInvalidInput
		}
		agg.CommissionBaseCents = roundCents(float64(agg.PriceCents) * pct / 100)
		return agg, nil
	}

	var commission float64
	for _, svc := range services {
		commission += float64(svc.PriceCents) * svc.CommissionPercent / 100
	}
	agg.CommissionBaseCents = roundCents(commission)

	return agg, nil
}

func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
