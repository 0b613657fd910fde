// Package matching turns the oracle's reply into a canonical match result
// and renders it for the chat.
package matching

// DefaultPercentage is displayed when the oracle omits match_percentage.
const DefaultPercentage = "85"

// Kind tags the variant held by a Result.
type Kind int

const (
	// KindRaw means the oracle reply could not be structured and is shown verbatim.
	KindRaw Kind = iota
	// KindStructured means the reply was decoded into a Match.
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	default:
		return "raw"
	}
}

// Match is a professional picked by the oracle.
type Match struct {
	Name        string `json:"name" mapstructure:"name"`
	Percentage  string `json:"match_percentage" mapstructure:"match_percentage"`
	Description string `json:"description" mapstructure:"description"`
	ContactInfo string `json:"contact_info,omitempty" mapstructure:"contact_info"`
	Reason      string `json:"reason" mapstructure:"reason"`
}

// Result is either a structured Match or the raw oracle text.
type Result struct {
	Kind  Kind
	Match *Match
	Raw   string
}

// Structured wraps a decoded match.
func Structured(m *Match) Result {
	return Result{Kind: KindStructured, Match: m}
}

// Raw wraps text that is forwarded as is.
func Raw(text string) Result {
	return Result{Kind: KindRaw, Raw: text}
}
