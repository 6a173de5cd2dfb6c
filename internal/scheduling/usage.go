package scheduling

// Usage — месячное использование автоматических сообщений арендатором.
// Гейт не блокирует отправку: политика «всегда шлём, перерасход — в счёт».
type Usage struct {
	MonthCount int   `json:"monthCount"`
	ExtraCount int   `json:"extraCount"`
	CostCents  int64 `json:"costCents"`
}

// ComputeUsage считает перерасход и его стоимость.
func ComputeUsage(monthCount, freeLimit int, unitPriceCents int64) Usage {
	extra := monthCount - freeLimit
	if extra < 0 {
		extra = 0
	}
	return Usage{
		MonthCount: monthCount,
		ExtraCount: extra,
		CostCents:  int64(extra) * unitPriceCents,
	}
}
