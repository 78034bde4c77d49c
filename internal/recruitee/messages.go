package recruitee

import (
	"bytes"
	"html/template"

	"go-homework-bot/internal/domain"
)

const homeworkMailSubject = "sipgate Hausaufgabe"

// homeworkMailTemplate is the HTML body of the homework notification mail.
const homeworkMailTemplate = `<p>Hallo {{.ApplicantName}},</p><br />

<p>vielen Dank für die Zusendung deines GitLab-Accounts.</p>

<p>Du solltest bereits zwei Benachrichtigungen von GitLab erhalten haben. In dem <a href="{{.ProjectURL}}">GitLab-Repository</a>
findest du in der README Datei die Hausaufgabe.
Du hast für die Bearbeitung der Hausaufgabe erst einmal bis zum {{.DueDay}}.{{.DueMonth}}. Zeit.
Falls es zeitlich zu dem Datum knapp werden sollte, melde dich bitte rechtzeitig bei uns - wir alle kennen solche stressigen Wochen!</p>

<p>Klasse wäre es, wenn du uns an deinen Überlegungen beim Lösen der Hausaufgabe teilhaben lässt. Dafür kannst du die Funktionen von GitLab nutzen
und mehrere Commits einstellen. Da es oft verschiedene Lösungswege gibt, können wir so die Entwicklung deiner Lösung besser verstehen.</p>

<p>Falls du bisher keine oder nur wenige Erfahrungen mit dem Versionskontrollsystem Git hast, empfehlen wir dir die folgenden Links anzusehen:
  <ul>
    <li><a href="https://www.freecodecamp.org/news/what-is-git-and-how-to-use-it-c341b049ae61/">An introduction to Git</a></li>
    <li><a href="https://git-scm.com/video/get-going">Get going with Git (Video)</a></li>
  </ul>
</p>

<p>Wenn du mit der Bearbeitung der Hausaufgabe fertig bist, beantworte bitte noch drei Fragen zu deiner Hausaufgabe. Diese findest du als Issue
im selben Repository und unter dem Link <a href="{{.IssueURL}}">hier</a>.
Bitte schließe das Issue mit deiner Antwort, damit wir eine Benachrichtigung bekommen!</p>

<p>Falls Du Fragen haben solltest, kannst du uns sehr gerne eine E-Mail schreiben. Telefonisch sind wir leider nur schlecht erreichbar.</p>

<p>Der Zugang zum Repository läuft nach der Bearbeitungszeit automatisch ab. Das hat zur Folge, dass du ab diesem Zeitpunkt nicht länger pullen oder
pushen kannst.
Deine Lösung werden wir uns im Anschluss in jedem Fall anschauen. Im Anschluss melden wir uns bei dir.</p><br />
<p>Viel Erfolg und viele Grüße,<br />
{{.Signature}}</p>`

var homeworkMail = template.Must(template.New("homeworkMail").Parse(homeworkMailTemplate))

type homeworkMailData struct {
	ApplicantName string
	ProjectURL    string
	IssueURL      string
	Signature     string
	DueDay        int
	DueMonth      int
}

func renderHomeworkMail(values domain.MailValues) (string, error) {
	data := homeworkMailData{
		ApplicantName: values.ApplicantName,
		ProjectURL:    values.ProjectURL,
		IssueURL:      values.IssueURL,
		Signature:     values.Signature,
		DueDay:        values.HomeworkDueDate.Day(),
		DueMonth:      int(values.HomeworkDueDate.Month()),
	}

	var buf bytes.Buffer
	if err := homeworkMail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
