package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

// Params restricts a quotation snapshot to one flow: the client view,
// or a single provider's view when PartnerFlow is set. Date optionally
// narrows the scope to one date key.
type Params struct {
	Quotation            map[string][]domain.LineItem
	Date                 string
	PartnerFlow          bool
	PackagePerMember     int64
	VATPercentage        float64
	ServiceFeePercentage float64
	HasSpecificPCCFee    bool
	SpecificPCCFee       int64
	SkipVAT              bool
}

// DateBreakdown is the per-date slice of a breakdown.
type DateBreakdown struct {
	TotalPrice  int64 `json:"totalPrice"`
	TotalDishes int   `json:"totalDishes"`
	PCCFee      int64 `json:"PCCFee"`
}

// Breakdown is a fully priced snapshot. All amounts are VND.
type Breakdown struct {
	TotalPrice        int64                    `json:"totalPrice"`
	TotalDishes       int                      `json:"totalDishes"`
	PITOFee           int64                    `json:"PITOFee"`
	PITOPoints        int64                    `json:"PITOPoints"`
	ServiceFee        int64                    `json:"serviceFee"`
	TransportFee      int64                    `json:"transportFee"`
	Promotion         int64                    `json:"promotion"`
	TotalWithoutVAT   int64                    `json:"totalWithoutVAT"`
	VATFee            int64                    `json:"VATFee"`
	TotalWithVAT      int64                    `json:"totalWithVAT"`
	IsOverflowPackage bool                     `json:"isOverflowPackage"`
	Overflow          int64                    `json:"overflow"`
	PerDate           map[string]DateBreakdown `json:"perDate,omitempty"`
}

// PCCFeeByDishCount returns the packaging fee tier for one date's dish
// count. The table is a fixed step function agreed with operations.
func PCCFeeByDishCount(count int) int64 {
	switch {
	case count <= 0:
		return 0
	case count < 45:
		return 70000
	case count < 60:
		return 150000
	case count < 75:
		return 140000
	case count < 105:
		return 200000
	case count < 130:
		return 230000
	case count == 130:
		return 250000
	default:
		return 500000
	}
}

// Calculate prices the quotation slice described by p. It has no side
// effects and is deterministic for identical input. An empty quotation
// yields a zero breakdown, not an error.
func Calculate(p Params) Breakdown {
	if len(p.Quotation) == 0 {
		return Breakdown{}
	}

	dates := make([]string, 0, len(p.Quotation))
	for date := range p.Quotation {
		if p.Date != "" && date != p.Date {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	breakdown := Breakdown{PerDate: make(map[string]DateBreakdown, len(dates))}

	for _, date := range dates {
		var dayPrice int64
		var dayDishes int
		for _, item := range p.Quotation[date] {
			dayPrice += item.FoodPrice * int64(item.Frequency)
			dayDishes += item.Frequency
		}

		var pccFee int64
		if !p.PartnerFlow {
			// packaging fee accrues only on the client-side aggregate
			if p.HasSpecificPCCFee {
				if dayDishes > 0 {
					pccFee = p.SpecificPCCFee
				}
			} else {
				pccFee = PCCFeeByDishCount(dayDishes)
			}
		}

		breakdown.PerDate[date] = DateBreakdown{
			TotalPrice:  dayPrice,
			TotalDishes: dayDishes,
			PCCFee:      pccFee,
		}

		breakdown.TotalPrice += dayPrice
		breakdown.TotalDishes += dayDishes
		breakdown.PITOFee += pccFee
	}

	breakdown.PITOPoints = breakdown.TotalPrice / 100000

	if p.PartnerFlow {
		breakdown.ServiceFee = roundPct(breakdown.TotalPrice, p.ServiceFeePercentage)
	}

	breakdown.TotalWithoutVAT = breakdown.TotalPrice - breakdown.ServiceFee +
		breakdown.TransportFee + breakdown.PITOFee - breakdown.Promotion

	if !p.SkipVAT {
		breakdown.VATFee = roundPct(breakdown.TotalWithoutVAT, p.VATPercentage)
	}
	breakdown.TotalWithVAT = breakdown.VATFee + breakdown.TotalWithoutVAT

	packageBudget := int64(breakdown.TotalDishes) * p.PackagePerMember
	if packageBudget < breakdown.TotalPrice {
		breakdown.IsOverflowPackage = true
		breakdown.Overflow = breakdown.TotalWithVAT - packageBudget
	}

	return breakdown
}

func roundPct(amount int64, pct float64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(pct)).
		Round(0).
		IntPart()
}
