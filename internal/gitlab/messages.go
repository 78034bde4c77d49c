package gitlab

import (
	"bytes"
	"text/template"

	"go-homework-bot/internal/domain"
)

// homeworkIssueTemplate is the markdown body of the instructional issue the
// candidate closes to signal submission.
const homeworkIssueTemplate = `
Hallo {{.ApplicantName}},

dieses Issue kannst du schließen, nachdem du die Hausaufgabe fertig bearbeitet hast. Bitte beantworte noch die folgenden drei Fragen zu deiner Hausaufgabe:

1. Welchen Teil würdest du als größte Hürde beschreiben?
2. Was gefällt dir an deiner Lösung am besten?
3. Was könnte man noch verbessern?

Nachdem du dieses Issue mit deinen Antworten geschlossen hast, bekommen wir eine Benachrichtigung. Wir schauen uns anschließend deine Lösung genau an und
werden uns bei dir melden.
`

var homeworkIssue = template.Must(template.New("homeworkIssue").Parse(homeworkIssueTemplate))

func renderHomeworkIssue(values domain.IssueValues) (string, error) {
	var buf bytes.Buffer
	if err := homeworkIssue.Execute(&buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
