package oracle

// WelcomeText greets users when the greeting generator is disabled or fails.
const WelcomeText = `Вітаємо у Business Match 🚀
Я — ваш асистент зі структурованого нетворкінгу. У нашій базі понад 50 000+ перевірених професіоналів, відкритих до співпраці. Допоможу швидко знайти релевантних партнерів та можливості для розвитку бізнесу 📈

🤝 Як це працює:
Опишіть, кого шукаєте: галузь, роль, рівень, географія, формат співпраці.

📌 Приклади запитів:
• «Шукаю маркетологів для IT-стартапу»
• «Потрібні інвестори для e-commerce проєкту»
• «Хочу зустрітися з підприємцями у сфері охорони здоров'я»
• «Шукаю ментора з digital-маркетингу»

Я зіставлю ваш запит із базою та надам короткий список релевантних контактів із обґрунтуванням ✅`

// ConverseFallback answers small talk when the generator is unavailable.
const ConverseFallback = "Дякую за звернення! Якщо потрібно знайти бізнес-експертів, просто опишіть, кого ви шукаєте."

const greetRequest = "Привітай людину, яка щойно відкрила бота."
