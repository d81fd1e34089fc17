package agent

import "math"

// tokenCalculationRules mirrors the original's TokenCalculationRules:
// empirical chars-per-token ratios, one for CJK scripts and one for
// everything else, plus a fixed per-call overhead.
type tokenCalculationRules struct {
	cjkCharsPerToken   float64
	otherCharsPerToken float64
	baseOverhead       int
}

func defaultTokenRules() tokenCalculationRules {
	return tokenCalculationRules{
		cjkCharsPerToken:   1.5,
		otherCharsPerToken: 4.0,
		baseOverhead:       50,
	}
}

// TokenEstimation is the breakdown returned by EstimateTokens.
type TokenEstimation struct {
	EstimatedTokens int
	CharacterCount  int
	CJKCharCount    int
	OtherCharCount  int
}

// EstimateTokens applies the per-character heuristic from spec §4.5:
// CJK characters (CJK Unified Ideographs and its extension blocks) cost
// 1.5 chars/token, every other character costs 4.0 chars/token, plus a
// fixed 50-token overhead. This is a thresholding heuristic only — never
// used for billing, which relies on the provider's reported Usage.
func EstimateTokens(text string) TokenEstimation {
	rules := defaultTokenRules()

	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}

	cjkTokens := int(math.Ceil(float64(cjk) / rules.cjkCharsPerToken))
	otherTokens := int(math.Ceil(float64(other) / rules.otherCharsPerToken))

	return TokenEstimation{
		EstimatedTokens: cjkTokens + otherTokens + rules.baseOverhead,
		CharacterCount:  cjk + other,
		CJKCharCount:    cjk,
		OtherCharCount:  other,
	}
}

// isCJK reports whether r falls in one of the CJK Unified Ideograph
// blocks (base plane plus extensions A-G).
func isCJK(r rune) bool {
	switch {
	case r >= 0x3400 && r <= 0x4DBF: // Extension A
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // Unified Ideographs
		return true
	case r >= 0x20000 && r <= 0x2A6DF: // Extension B
		return true
	case r >= 0x2A700 && r <= 0x2B73F: // Extension C
		return true
	case r >= 0x2B740 && r <= 0x2B81F: // Extension D
		return true
	case r >= 0x2B820 && r <= 0x2CEAF: // Extension E
		return true
	case r >= 0x2CEB0 && r <= 0x2EBEF: // Extension F
		return true
	case r >= 0x30000 && r <= 0x3134F: // Extension G
		return true
	default:
		return false
	}
}
