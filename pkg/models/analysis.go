package models

import "time"

// Polarity is the market direction a news item implies.
// It is assigned by the LLM, never computed.
type Polarity string

const (
	PolarityBullish Polarity = "bullish" // 利多
	PolarityBearish Polarity = "bearish" // 利空
	PolarityNeutral Polarity = "neutral" // 中性
)

// ParsePolarity maps English or Chinese labels to a Polarity.
// Unknown labels are neutral.
func ParsePolarity(s string) Polarity {
	switch s {
	case "bullish", "positive", "利多", "正向", "看涨":
		return PolarityBullish
	case "bearish", "negative", "利空", "负向", "看跌":
		return PolarityBearish
	default:
		return PolarityNeutral
	}
}

// NewsItem is a single search hit.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Polarity    Polarity  `json:"polarity,omitempty"`
}

// SentimentLevel is the 7-step market sentiment scale.
type SentimentLevel string

const (
	SentimentStrongBullish  SentimentLevel = "strong_bullish"  // 强烈看涨
	SentimentBullish        SentimentLevel = "bullish"         // 看涨
	SentimentLeaningBullish SentimentLevel = "leaning_bullish" // 中性偏涨
	SentimentNeutral        SentimentLevel = "neutral"         // 中性
	SentimentLeaningBearish SentimentLevel = "leaning_bearish" // 中性偏跌
	SentimentBearish        SentimentLevel = "bearish"         // 看跌
	SentimentStrongBearish  SentimentLevel = "strong_bearish"  // 强烈看跌
)

var sentimentLabels = map[SentimentLevel]string{
	SentimentStrongBullish:  "强烈看涨",
	SentimentBullish:        "看涨",
	SentimentLeaningBullish: "中性偏涨",
	SentimentNeutral:        "中性",
	SentimentLeaningBearish: "中性偏跌",
	SentimentBearish:        "看跌",
	SentimentStrongBearish:  "强烈看跌",
}

// Label returns the Chinese label of the level.
func (l SentimentLevel) Label() string {
	if s, ok := sentimentLabels[l]; ok {
		return s
	}
	return sentimentLabels[SentimentNeutral]
}

// SentimentLevels returns the scale from most bullish to most bearish.
func SentimentLevels() []SentimentLevel {
	return []SentimentLevel{
		SentimentStrongBullish, SentimentBullish, SentimentLeaningBullish, SentimentNeutral,
		SentimentLeaningBearish, SentimentBearish, SentimentStrongBearish,
	}
}

// ParseSentimentLevel maps a Chinese label or English key to a level.
func ParseSentimentLevel(s string) (SentimentLevel, bool) {
	for l, label := range sentimentLabels {
		if s == label || s == string(l) {
			return l, true
		}
	}
	return SentimentNeutral, false
}

// Action is the recommended position.
type Action string

const (
	ActionBuy  Action = "buy"  // 做多
	ActionSell Action = "sell" // 做空
	ActionHold Action = "hold" // 观望
)

// ParseAction normalizes an LLM-provided action. Unknown values become hold.
func ParseAction(s string) Action {
	switch s {
	case "buy", "long", "BUY", "LONG", "做多", "买入":
		return ActionBuy
	case "sell", "short", "SELL", "SHORT", "做空", "卖出":
		return ActionSell
	default:
		return ActionHold
	}
}

// Label returns the Chinese label of the action.
func (a Action) Label() string {
	switch a {
	case ActionBuy:
		return "做多"
	case ActionSell:
		return "做空"
	default:
		return "观望"
	}
}

// Recommendation is the final call produced by the summary step.
type Recommendation struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Horizon    string  `json:"horizon,omitempty"`
	Rationale  string  `json:"rationale,omitempty"`
}
