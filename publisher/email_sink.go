package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"

	Logger "github.com/Luismorlan/dailydrop/utils/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// No real email transport is wired, the sink renders the digest html and logs
// it. Swapping in SES or SMTP later only means replacing deliver().
const digestTemplate = `<html>
<body>
  <h2>Your daily drop, {{.FirstName}}</h2>
  <ul>
    {{range .Items}}
    <li>
      <a href="{{.Url}}">{{.Title}}</a> <em>({{.Source}})</em>
      <p>{{.Summary}}</p>
    </li>
    {{end}}
  </ul>
</body>
</html>`

// EmailSink consumes drop digest events from the bus and "sends" them.
type EmailSink struct {
	bus  *gochannel.GoChannel
	tmpl *template.Template
}

func NewEmailSink(bus *gochannel.GoChannel) *EmailSink {
	return &EmailSink{
		bus:  bus,
		tmpl: template.Must(template.New("digest").Parse(digestTemplate)),
	}
}

// Run subscribes to the digest topic and processes events until the context
// is cancelled. Rendering failures are logged per message, never fatal.
func (s *EmailSink) Run(ctx context.Context) error {
	messages, err := s.bus.Subscribe(ctx, TopicDailyDropGenerated)
	if err != nil {
		return err
	}
	for msg := range messages {
		s.handle(msg)
	}
	return nil
}

func (s *EmailSink) handle(msg *message.Message) {
	defer msg.Ack()

	var digest DropDigest
	if err := json.Unmarshal(msg.Payload, &digest); err != nil {
		Logger.Log.Error("fail to decode drop digest event: ", err)
		return
	}

	html, err := s.Render(digest)
	if err != nil {
		Logger.Log.Error("fail to render drop digest for user ", digest.UserID, ": ", err)
		return
	}
	s.deliver(digest, html)
}

// Render produces the digest html for one user.
func (s *EmailSink) Render(digest DropDigest) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *EmailSink) deliver(digest DropDigest, html string) {
	Logger.Log.Info("daily drop email for ", digest.Email, " (", len(digest.Items), " items):\n", html)
}
