package domain

import "fmt"

// Pricing holds per-token rates for input and output tokens.
type Pricing struct {
	InputRate  Money
	OutputRate Money
}

// PricingPerMillion builds per-token rates from prices quoted per million tokens,
// which is how providers publish them.
func PricingPerMillion(inputPerMillion, outputPerMillion float64) Pricing {
	return Pricing{
		InputRate:  MoneyFromFloat(inputPerMillion / 1_000_000),
		OutputRate: MoneyFromFloat(outputPerMillion / 1_000_000),
	}
}

func (p Pricing) Validate() error {
	if p.InputRate < 0 {
		return fmt.Errorf("input rate must be non-negative")
	}
	if p.OutputRate < 0 {
		return fmt.Errorf("output rate must be non-negative")
	}

	return nil
}

// Cost returns inputTokens*InputRate + outputTokens*OutputRate. Negative
// counts are treated as zero.
func (p Pricing) Cost(inputTokens, outputTokens int64) Money {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}

	return Money(inputTokens)*p.InputRate + Money(outputTokens)*p.OutputRate
}

func (p Pricing) CostOf(usage Usage) Money {
	return p.Cost(usage.InputTokens, usage.OutputTokens)
}
