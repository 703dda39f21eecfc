package notify

import (
	"context"
	"fmt"
	"html"
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

func OTPMessage(to, code string) *Message {
	return &Message{
		To:      to,
		Subject: "Hackathon OTP Verification",
		Text:    fmt.Sprintf("Your OTP is %s", code),
		HTML:    fmt.Sprintf("<p>Your OTP is <b>%s</b></p>", html.EscapeString(code)),
	}
}

func CertificateMessage(to, teamName string) *Message {
	return &Message{
		To:      to,
		Subject: "Hackathon Certificate",
		Text:    "Congratulations! Attached is your certificate.",
		HTML: fmt.Sprintf(
			"<h3>Congratulations %s!</h3><p>Your team has successfully participated.</p>",
			html.EscapeString(teamName),
		),
	}
}
