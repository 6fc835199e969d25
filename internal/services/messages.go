// Reply catalogs.
//
// Every user-facing reply lives here, per language. A bot's configured
// BCP 47 tag is matched against the supported catalogs; unknown or empty
// tags fall back to English.
package services

import "golang.org/x/text/language"

// catalog holds the fixed replies of one language.
type catalog struct {
	welcome            string
	shareContactButton string
	cancelButton       string

	askCustomerNumber string // %s: comma-separated valid numbers
	badCustomerNumber string // %s: comma-separated valid numbers
	noCustomers       string

	ticketCreated      string // %s: ticket number
	ticketCreateFailed string
	alreadyOpen        string // %s: ticket number

	noteAdded        string
	noteFailed       string
	attachmentAdded  string
	attachmentFailed string

	statusOpen string // %s: ticket number
	statusNone string

	cancelDone    string // %s: ticket number
	cancelFailed  string
	cancelNothing string

	agentReply   string // %s: message body
	closedNotice string // %s: ticket number

	dontUnderstand string
}

var catalogEN = catalog{
	welcome:            "Welcome! To create a ticket, please share your contact information by clicking the button below.",
	shareContactButton: "Create Ticket (Share Phone Number)",
	cancelButton:       "Cancel ticket",
	askCustomerNumber:  "Thank you! Please reply with your customer number (%s).",
	badCustomerNumber:  "That is not a valid customer number. Valid numbers: %s.",
	noCustomers:        "No customers are configured for this bot. Please contact an administrator.",
	ticketCreated:      "Success! Your ticket has been created.\nTicket Number: %s",
	ticketCreateFailed: "Error! Could not create the ticket. Please contact an administrator.",
	alreadyOpen:        "You already have an open ticket (#%s). Your messages are forwarded to it.",
	noteAdded:          "Your message was added to the ticket.",
	noteFailed:         "Could not deliver your message to the ticket. Please try again later.",
	attachmentAdded:    "Your file was added to the ticket.",
	attachmentFailed:   "Could not deliver your file to the ticket. Please try again later.",
	statusOpen:         "Your ticket #%s is open.",
	statusNone:         "You have no open ticket.",
	cancelDone:         "Ticket #%s has been cancelled.",
	cancelFailed:       "Could not cancel the ticket. Please try again later.",
	cancelNothing:      "You have no open ticket to cancel.",
	agentReply:         "Support: %s",
	closedNotice:       "Your ticket #%s has been closed. Thank you!",
	dontUnderstand:     "I'm sorry, I don't understand that. Please use /start to create a new ticket.",
}

var catalogDE = catalog{
	welcome:            "Willkommen! Um ein Ticket zu erstellen, teilen Sie bitte Ihre Kontaktdaten über die Schaltfläche unten.",
	shareContactButton: "Ticket erstellen (Telefonnummer teilen)",
	cancelButton:       "Ticket stornieren",
	askCustomerNumber:  "Danke! Bitte antworten Sie mit Ihrer Kundennummer (%s).",
	badCustomerNumber:  "Das ist keine gültige Kundennummer. Gültige Nummern: %s.",
	noCustomers:        "Für diesen Bot sind keine Kunden hinterlegt. Bitte wenden Sie sich an einen Administrator.",
	ticketCreated:      "Erfolg! Ihr Ticket wurde erstellt.\nTicketnummer: %s",
	ticketCreateFailed: "Fehler! Das Ticket konnte nicht erstellt werden. Bitte wenden Sie sich an einen Administrator.",
	alreadyOpen:        "Sie haben bereits ein offenes Ticket (#%s). Ihre Nachrichten werden dorthin weitergeleitet.",
	noteAdded:          "Ihre Nachricht wurde dem Ticket hinzugefügt.",
	noteFailed:         "Ihre Nachricht konnte nicht zugestellt werden. Bitte versuchen Sie es später erneut.",
	attachmentAdded:    "Ihre Datei wurde dem Ticket hinzugefügt.",
	attachmentFailed:   "Ihre Datei konnte nicht zugestellt werden. Bitte versuchen Sie es später erneut.",
	statusOpen:         "Ihr Ticket #%s ist offen.",
	statusNone:         "Sie haben kein offenes Ticket.",
	cancelDone:         "Ticket #%s wurde storniert.",
	cancelFailed:       "Das Ticket konnte nicht storniert werden. Bitte versuchen Sie es später erneut.",
	cancelNothing:      "Sie haben kein offenes Ticket zum Stornieren.",
	agentReply:         "Support: %s",
	closedNotice:       "Ihr Ticket #%s wurde geschlossen. Vielen Dank!",
	dontUnderstand:     "Das habe ich leider nicht verstanden. Bitte nutzen Sie /start, um ein neues Ticket zu erstellen.",
}

var catalogRU = catalog{
	welcome:            "Добро пожаловать! Чтобы создать заявку, поделитесь контактом с помощью кнопки ниже.",
	shareContactButton: "Создать заявку (поделиться номером)",
	cancelButton:       "Отменить заявку",
	askCustomerNumber:  "Спасибо! Отправьте ваш номер клиента (%s).",
	badCustomerNumber:  "Это не похоже на номер клиента. Допустимые номера: %s.",
	noCustomers:        "Для этого бота не настроены клиенты. Обратитесь к администратору.",
	ticketCreated:      "Готово! Ваша заявка создана.\nНомер заявки: %s",
	ticketCreateFailed: "Ошибка! Не удалось создать заявку. Обратитесь к администратору.",
	alreadyOpen:        "У вас уже есть открытая заявка (#%s). Сообщения пересылаются в неё.",
	noteAdded:          "Сообщение добавлено к заявке.",
	noteFailed:         "Не удалось доставить сообщение. Попробуйте позже.",
	attachmentAdded:    "Файл добавлен к заявке.",
	attachmentFailed:   "Не удалось доставить файл. Попробуйте позже.",
	statusOpen:         "Ваша заявка #%s открыта.",
	statusNone:         "У вас нет открытой заявки.",
	cancelDone:         "Заявка #%s отменена.",
	cancelFailed:       "Не удалось отменить заявку. Попробуйте позже.",
	cancelNothing:      "У вас нет открытой заявки для отмены.",
	agentReply:         "Поддержка: %s",
	closedNotice:       "Ваша заявка #%s закрыта. Спасибо!",
	dontUnderstand:     "Я не понимаю это сообщение. Используйте /start, чтобы создать новую заявку.",
}

var (
	catalogTags = []language.Tag{language.English, language.German, language.Russian}
	catalogList = []catalog{catalogEN, catalogDE, catalogRU}
	// The first tag is the fallback for unknown languages.
	catalogMatcher = language.NewMatcher(catalogTags)
)

// catalogFor selects the reply catalog for a bot's language tag.
func catalogFor(tag string) catalog {
	if tag == "" {
		return catalogEN
	}
	t, err := language.Parse(tag)
	if err != nil {
		return catalogEN
	}
	_, i, _ := catalogMatcher.Match(t)
	return catalogList[i]
}
