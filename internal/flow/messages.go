package flow

import (
	"fmt"
	"strings"

	"github.com/hihikaAAa/duty-bot/internal/calendar"
	"github.com/hihikaAAa/duty-bot/internal/duty"
)

const (
	textGreeting     = "Бот для планирования дежурств."
	textStartPrompt  = "Укажи дату начала дежурства"
	textEndPrompt    = "Укажи дату конца дежурства"
	textAskAssignees = "Перечисли дежурных через пробел (например: @alice @bob). Можно несколькими сообщениями. Когда закончишь, отправь /finish."
	textFailure      = "Не удалось сохранить данные, попробуйте ещё раз."
	textNoDuties     = "Ближайших дежурств нет."
)

var helpLines = []string{
	"/help - показать список команд",
	"/assign - назначить человека на дежурство",
	"/finish - сохранить назначение",
	"/duties - ближайшие дежурства проекта",
}

func helpText() string { return strings.Join(helpLines, "\n") }

func noProjectText(chatID int64) string {
	return fmt.Sprintf("К этому чату не привязан проект.\nДобавьте его: dutybot project add <название> %d", chatID)
}

func promptText(header string, step calendar.Step) string {
	return header + "\n" + step.Label()
}

func startChosenText(d calendar.Date) string { return "Дата начала дежурства " + d.Human() }

func endChosenText(d calendar.Date) string { return "Дата конца дежурства " + d.Human() }

func rangeText(start, end calendar.Date) string {
	return start.Human() + " - " + end.Human()
}

func handlesText(handles []string) string {
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		out = append(out, "@"+h)
	}
	return strings.Join(out, ", ")
}

func runningListText(handles []string, start, end calendar.Date) string {
	return fmt.Sprintf("Дежурные: %s\nПериод: %s\nОтправь /finish, чтобы сохранить.", handlesText(handles), rangeText(start, end))
}

func summaryText(id int64, project string, handles []string, start, end calendar.Date) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Дежурство #%d сохранено.\n", id)
	if project != "" {
		fmt.Fprintf(&sb, "Проект: %s\n", project)
	}
	fmt.Fprintf(&sb, "Период: %s\n", rangeText(start, end))
	fmt.Fprintf(&sb, "Дежурные: %s", handlesText(handles))
	return sb.String()
}

func dutiesText(project string, ds []*duty.Duty) string {
	if len(ds) == 0 {
		return textNoDuties
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Дежурства проекта «%s»:\n", project)
	for _, d := range ds {
		fmt.Fprintf(&sb, "• %s: %s\n", rangeText(d.StartDate, d.EndDate), handlesText(d.Assignees))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ParseHandles splits free text into assignee handles. A leading '@' is
// dropped; order and duplicates are kept.
func ParseHandles(text string) []string {
	var out []string
	for _, tok := range strings.Fields(text) {
		h := strings.TrimPrefix(tok, "@")
		if h == "" {
			continue
		}
		out = append(out, h)
	}
	return out
}
