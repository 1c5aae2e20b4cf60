// Package pricing implements the wholesale pricing engine. It is pure
// computation: no I/O, no storage access. Both the nightly catalog
// reconciliation job and the synchronous admin update path call into it,
// so it is the single source of truth for the commercial formula.
package pricing

import (
	"math"
	"strconv"
)

// Options holds the pricing tunables. MinProfit/MaxProfit bound the
// platform's per-unit profit, MinMargin/MaxMargin bound the customer's
// acceptable margin band against the buybox price, MidProfit is the
// preferred per-unit profit when the band allows it, and MOQTargetProfit
// is the fixed profit a single SKU order must clear when deriving the
// minimum order quantity.
type Options struct {
	MinProfit       float64
	MaxProfit       float64
	MinMargin       float64
	MaxMargin       float64
	MidProfit       float64
	MOQTargetProfit float64
}

// DefaultOptions returns the production defaults for the pricing engine.
func DefaultOptions() Options {
	return Options{
		MinProfit:       1.0,
		MaxProfit:       10,
		MinMargin:       0.14,
		MaxMargin:       0.36,
		MidProfit:       2.5,
		MOQTargetProfit: 250,
	}
}

// minCustomerProfit is the absolute floor on the customer's per-unit
// profit in currency units. When the preferred price would leave the
// customer below it, the selling price is pushed down to honor it.
const minCustomerProfit = 2

// Result is the output of a wholesale price calculation. SellingPrice
// and BuyingPrice stay unrounded floats; Profit, Margin and ROI are
// formatted to two decimals only at the output boundary so intermediate
// rounding never compounds.
type Result struct {
	Profitable   bool
	BuyingPrice  float64
	SellingPrice float64
	BuyboxPrice  float64
	// MOQ is nil when the platform profit works out to exactly zero.
	MOQ    *int
	Profit string
	Margin string
	ROI    string
}

// ForcedResult is the output of a forced-price recalculation. It carries
// only the derived metrics: MOQ and profitability are deliberately not
// recomputed in forced mode.
type ForcedResult struct {
	Profit string
	Margin string
	ROI    string
}

// CalcWholesalePrice derives a selling price from the buying price, the
// marketplace buybox price and the marketplace fee.
//
// The platform profit is clamped into the band where both the platform's
// profit floor/ceiling and the customer's margin band hold. When the
// band is empty the floor profit wins and the result is flagged not
// profitable. Inputs are assumed to be valid finite numbers; parsing and
// validation happen at the caller boundary. A zero buybox price yields
// Inf/NaN margin and roi, which callers are expected to guard upstream.
func CalcWholesalePrice(buyingPrice, buyboxPrice, amazonFee float64, opts Options) Result {
	lowerBound := math.Max(opts.MinProfit, buyboxPrice*(1-opts.MaxMargin)-amazonFee-buyingPrice)
	upperBound := math.Min(opts.MaxProfit, buyboxPrice*(1-opts.MinMargin)-amazonFee-buyingPrice)

	profitable := true
	var profit, sellingPrice, customerProfit float64

	if lowerBound > upperBound {
		// No price satisfies both constraints; take the floor profit and
		// flag the row.
		profitable = false
		profit = lowerBound
		sellingPrice = buyingPrice + profit
		customerProfit = buyboxPrice - amazonFee - sellingPrice
	} else {
		profit = math.Min(math.Max(opts.MidProfit, lowerBound), upperBound)
		sellingPrice = buyingPrice + profit
		customerProfit = buyboxPrice - amazonFee - sellingPrice

		if customerProfit < minCustomerProfit {
			sellingPrice = buyboxPrice - amazonFee - minCustomerProfit
			profit = sellingPrice - buyingPrice

			if profit < lowerBound {
				profitable = false
			}

			customerProfit = buyboxPrice - amazonFee - sellingPrice
		}
	}

	margin := (buyboxPrice - amazonFee - sellingPrice) / buyboxPrice

	var moq *int
	if profit != 0 {
		m := int(math.Ceil(opts.MOQTargetProfit / profit))
		moq = &m
	}

	return Result{
		Profitable:   profitable,
		BuyingPrice:  buyingPrice,
		SellingPrice: sellingPrice,
		BuyboxPrice:  buyboxPrice,
		MOQ:          moq,
		Profit:       format2(customerProfit),
		Margin:       format2(margin * 100),
		ROI:          format2(customerProfit / sellingPrice * 100),
	}
}

// CalcSellingPrice recomputes profit, margin and roi around a pinned
// selling price. Used when forced_selling_price is set on a catalog row;
// the price itself is never altered here.
func CalcSellingPrice(sellingPrice, buyboxPrice, amazonFee float64) ForcedResult {
	profit := buyboxPrice - amazonFee - sellingPrice

	return ForcedResult{
		Profit: format2(profit),
		Margin: format2(profit / buyboxPrice * 100),
		ROI:    format2(profit / sellingPrice * 100),
	}
}

func format2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
