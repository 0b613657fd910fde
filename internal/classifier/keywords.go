package classifier

// DefaultConversational lists phrases that mark a message as small talk,
// greetings, thanks or questions about the bot itself. "старт"/"start" are
// left out: /start is routed as a command and the stems would swallow every
// "стартап"/"startup" request.
var DefaultConversational = []string{
	"дякую", "спасибі", "thank you", "thanks",
	"привіт", "вітаю", "добрий день", "доброго дня", "hello", "hi",
	"як справи", "що нового", "how are you",
	"допоможи", "help", "допомога",
	"що робиш", "що можна", "можливості",
	"тест", "test", "перевірка",
	"працює", "робота", "work",
	"почати",
	"інформація", "information", "інфо", "info",
}

// DefaultBusiness lists professional-domain keywords. Their presence makes a
// message a search request and marks it as clear. Two-letter acronyms such as
// "IT" or "HR" are not listed since substring matching would hit ordinary
// words ("privit", "with").
var DefaultBusiness = []string{
	"шукаю", "потрібен", "потрібні", "потрібна", "потрібно",
	"експерт", "фахівець", "спеціаліст", "професіонал",
	"маркетинг", "дизайн", "розробка", "програмування",
	"інвестор", "інвестиції", "бізнес", "стартап",
	"ментор", "консультант", "тренер", "коуч",
	"продажі", "реклама", "брендинг",
	"фінанси", "бухгалтер", "юрист",
	"технології", "цифрові", "онлайн",
	"e-commerce", "інтернет", "соціальні мережі",
}

// DefaultUnclear lists filler and meta phrases that make a keyword-less
// search request too vague to dispatch.
var DefaultUnclear = []string{
	"....", "...", "???", "??",
	"що робиш", "як справи", "що нового",
	"тест", "перевірка", "працює",
	"що можна", "можливості", "допоможи",
}
