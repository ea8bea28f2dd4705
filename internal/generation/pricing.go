package generation

// Price per one million tokens in dollars.
type modelPrice struct {
	Input  float64
	Output float64
}

var modelPrices = map[string]modelPrice{
	"gpt-5.2":     {Input: 1.75, Output: 14.00},
	"gpt-5.2-pro": {Input: 21.00, Output: 168.00},
	"gpt-5-mini":  {Input: 0.25, Output: 2.00},
	"gpt-4.1":     {Input: 3.00, Output: 12.00},
}

var fallbackPrice = modelPrice{Input: 3.00, Output: 12.00}

// EstimateCost returns the dollar cost of a generation based on the
// model's published per-million-token pricing. Unknown models use a
// conservative fallback so cost rows are never zero.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := modelPrices[model]
	if !ok {
		price = fallbackPrice
	}
	return float64(inputTokens)/1_000_000*price.Input +
		float64(outputTokens)/1_000_000*price.Output
}
