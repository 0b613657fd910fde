package matching

import (
	"fmt"
	"strings"
)

// Render formats a result as a Markdown chat message. Raw results are
// returned untouched.
func Render(r Result) string {
	if r.Kind != KindStructured || r.Match == nil {
		return r.Raw
	}

	m := r.Match
	percentage := m.Percentage
	if percentage == "" {
		percentage = DefaultPercentage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💼 **Знайдений експерт: %s**\n", m.Name)
	fmt.Fprintf(&b, "🧮 **Збіг - %s%%**\n\n", percentage)
	fmt.Fprintf(&b, "📋 **Про експерта:**\n%s\n\n", m.Description)

	if m.ContactInfo != "" {
		fmt.Fprintf(&b, "📞 **Контактна інформація:** %s\n\n", m.ContactInfo)
	}

	fmt.Fprintf(&b, "✨ **Чому корисний для вас:** %s", m.Reason)

	return b.String()
}

// Summary builds a spoken-style paraphrase without calling any service. It is
// the fallback text for audio narration.
func Summary(r Result) string {
	var b strings.Builder
	b.WriteString("Привіт! Я думаю, що знайшов для вас ідеального експерта. ")

	if r.Kind != KindStructured || r.Match == nil {
		b.WriteString(firstSentence(r.Raw))
		b.WriteString(" Рекомендую звернутися до цього професіонала для подальшої співпраці.")
		return strings.TrimSpace(b.String())
	}

	m := r.Match
	fmt.Fprintf(&b, "Це %s. ", m.Name)
	if m.Percentage != "" {
		fmt.Fprintf(&b, "Збіг становить %s відсотків. ", m.Percentage)
	}
	fmt.Fprintf(&b, "%s ", firstSentence(m.Description))
	fmt.Fprintf(&b, "Корисний тому що %s ", lowerFirst(firstSentence(m.Reason)))
	b.WriteString("Рекомендую звернутися до цього професіонала для подальшої співпраці.")

	return b.String()
}

func firstSentence(text string) string {
	text = strings.TrimSpace(stripMarkdown(text))
	if idx := strings.IndexAny(text, ".!?"); idx != -1 {
		return text[:idx+1]
	}
	if text == "" {
		return ""
	}
	return text + "."
}

func lowerFirst(text string) string {
	for i, r := range text {
		return strings.ToLower(string(r)) + text[i+len(string(r)):]
	}
	return text
}

func stripMarkdown(text string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
}
