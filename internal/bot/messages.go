package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
)

const (
	defaultBannerURL     = "https://i.postimg.cc/mtFChPhV/ChatGPT-Image-15-вер-2025-р-18-52-13.png"
	defaultAppURL        = "https://apps.apple.com/ua/app/business-match-social-app/id1547614364"
	bannerCaption        = "🚀 Business Match - Ваш асистент з нетворкінгу"
	audioTitle           = "Підсумок збігу"
	audioPerformer       = "Business Match Bot"
	cancelText           = "✅ Розмову скасовано. Використовуйте /start для початку нового пошуку!"
	matchFailedText      = "😔 **Виникла помилка при обробці запиту.**\n\nСпробуйте ще раз або зверніться до підтримки."
	clarificationText    = "🤔 **Ваш запит не зовсім зрозумілий.**\n\n" +
		"Будь ласка, сформулюйте точніше, яких бізнес-професіоналів ви шукаєте.\n\n" +
		"**Приклади чітких запитів:**\n" +
		"• «Шукаю фахівців із маркетингу для IT-стартапу»\n" +
		"• «Потрібні інвестори для e-commerce проєкту»\n" +
		"• «Хочу зустрітися з підприємцями у сфері охорони здоров'я»\n" +
		"• «Шукаю менторів із digital-маркетингу»"
)

const helpText = `*🤖 Допомога Business Match Bot*

*Команди:*
/start - Почати роботу з ботом та отримати інструкції
/help - Показати це повідомлення допомоги
/cancel - Скасувати поточну розмову

*Як знайти бізнес-зв'язки:*
Просто напишіть, що ви шукаєте! Наприклад:
• "Шукаю експертів з маркетингу в IT-стартапах"
• "Потрібні інвестори для мого e-commerce бізнесу"
• "Хочу зустрітися з підприємцями в сфері охорони здоров'я"

Бот проаналізує нашу базу професіоналів і підбере експерта, який найкраще підходить під ваш запит, з детальним поясненням!

*Функції:*
✅ AI-підбір експертів
✅ Детальний аналіз сумісності
✅ Контактна інформація та посилання на соцмережі
✅ Голосовий підсумок знайденого збігу`

// progressNotices are shown one by one while the match is being computed.
var progressNotices = []string{
	"📥 **Отримання інформації...**",
	"🤖 **Обробка інформації за допомогою AI...**",
	"🔍 **Пошук користувачів, які підходять під ваш запит...**",
	"⏳ **Детальний аналіз збігів... (це може зайняти до 2 хвилин)**",
}

// Commands is the menu published to Telegram.
var Commands = []telego.BotCommand{
	{Command: "start", Description: "Почати роботу з ботом"},
	{Command: "help", Description: "Допомога"},
	{Command: "cancel", Description: "Скасувати поточну розмову"},
}

func limitNotice(remaining, appURL string) string {
	return fmt.Sprintf("⏰ **Ліміт пошуку!**\n\n"+
		"Ви вже зробили пошук менше ніж 24 години тому.\n"+
		"**Доступно через:** %s\n\n"+
		"🚀 **Для необмеженого доступу встановіть додаток Business Match:**\n\n"+
		"📱 [Business Match App](%s)\n\n"+
		"✨ Там ви зможете робити необмежену кількість пошуків та знайти всіх експертів!", remaining, appURL)
}

func cooldownNotice(appURL string) string {
	return "Дякую, що скористались ботом. Ви маєте можливість робити один такий запит раз на 24 години.\n\n" +
		"💡 Для доступу до більшої бази професіоналів та повного функціоналу встановіть додаток Business Match!\n\n" +
		fmt.Sprintf("📱 [Встановити Business Match](%s)", appURL)
}
