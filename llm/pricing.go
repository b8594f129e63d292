package llm

import (
	"math"
	"strings"
)

// price in USD per 1K tokens
type price struct {
	prompt     float64
	completion float64
}

var modelPrices = map[string]price{
	"gpt-4o-mini":  {prompt: 0.00015, completion: 0.0006},
	"gpt-4o":       {prompt: 0.0025, completion: 0.01},
	"gpt-4.1-nano": {prompt: 0.0001, completion: 0.0004},
	"gpt-4.1-mini": {prompt: 0.0004, completion: 0.0016},
	"gpt-4.1":      {prompt: 0.002, completion: 0.008},
}

// Cost returns the USD cost of usage on model rounded to 5 decimals.
// Unknown models (local or self-hosted) cost nothing.
func Cost(model string, usage Usage) float64 {
	p, ok := lookupPrice(model)
	if !ok {
		return 0
	}

	cost := float64(usage.PromptTokens)/1000*p.prompt + float64(usage.CompletionTokens)/1000*p.completion
	return math.Round(cost*1e5) / 1e5
}

func lookupPrice(model string) (price, bool) {
	m := strings.ToLower(model)
	if p, ok := modelPrices[m]; ok {
		return p, true
	}

	// versioned names, e.g. gpt-4o-mini-2024-07-18; longest prefix wins
	best := ""
	for name := range modelPrices {
		if strings.HasPrefix(m, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return price{}, false
	}
	return modelPrices[best], true
}
