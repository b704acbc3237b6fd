// Package plivoxml renders the XML documents returned to Plivo from the
// answer and digit-input webhooks.
package plivoxml

import (
	"fmt"
	"strings"
)

// ContentType is the media type Plivo expects for XML answers.
const ContentType = "application/xml"

// Kind tells which of the four document shapes was produced.
type Kind int

const (
	KindGetDigits Kind = iota + 1
	KindDial
	KindSpeakHangup
	KindSpeak
)

func (k Kind) String() string {
	switch k {
	case KindGetDigits:
		return "get_digits"
	case KindDial:
		return "dial"
	case KindSpeakHangup:
		return "speak_hangup"
	case KindSpeak:
		return "speak"
	default:
		return "unknown"
	}
}

// Response is a rendered document plus its shape.
type Response struct {
	Kind Kind
	Body string
}

// Hangs reports whether the document ends the call.
func (r Response) Hangs() bool {
	return r.Kind == KindSpeakHangup
}

// Voice controls how a node's message is rendered: the optional <Speak>
// attributes, or a recording played instead of text-to-speech.
type Voice struct {
	Language string
	Voice    string
	AudioURL string
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five XML metacharacters with their entities.
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

func speak(b *strings.Builder, indent, message string, v Voice) {
	b.WriteString(indent)
	if v.AudioURL != "" {
		fmt.Fprintf(b, "<Play>%s</Play>\n", Escape(v.AudioURL))
		return
	}
	b.WriteString("<Speak")
	if v.Voice != "" {
		fmt.Fprintf(b, ` voice="%s"`, Escape(v.Voice))
	}
	if v.Language != "" {
		fmt.Fprintf(b, ` language="%s"`, Escape(v.Language))
	}
	b.WriteString(">")
	b.WriteString(Escape(message))
	b.WriteString("</Speak>\n")
}

// GetDigits prompts with message and collects numDigits digits, posting
// them to action.
func GetDigits(message string, timeout, numDigits int, action string, v Voice) Response {
	if numDigits <= 0 {
		numDigits = 1
	}
	var b strings.Builder
	b.WriteString("<Response>\n")
	fmt.Fprintf(&b, `  <GetDigits action="%s" method="POST" timeout="%d" numDigits="%d">`+"\n", Escape(action), timeout, numDigits)
	speak(&b, "    ", message, v)
	b.WriteString("  </GetDigits>\n")
	b.WriteString("</Response>")
	return Response{Kind: KindGetDigits, Body: b.String()}
}

// Dial transfers the caller to number, optionally announcing first.
func Dial(number string, timeout int, announcement string, v Voice) Response {
	var b strings.Builder
	b.WriteString("<Response>\n")
	if announcement != "" {
		speak(&b, "  ", announcement, v)
	}
	fmt.Fprintf(&b, `  <Dial timeout="%d">`+"\n", timeout)
	fmt.Fprintf(&b, "    <Number>%s</Number>\n", Escape(number))
	b.WriteString("  </Dial>\n")
	b.WriteString("</Response>")
	return Response{Kind: KindDial, Body: b.String()}
}

// SpeakHangup says message (if any) and ends the call.
func SpeakHangup(message string, v Voice) Response {
	var b strings.Builder
	b.WriteString("<Response>\n")
	if message != "" {
		speak(&b, "  ", message, v)
	}
	b.WriteString("  <Hangup />\n")
	b.WriteString("</Response>")
	return Response{Kind: KindSpeakHangup, Body: b.String()}
}

// Speak says message and leaves the call open.
func Speak(message string, v Voice) Response {
	var b strings.Builder
	b.WriteString("<Response>\n")
	speak(&b, "  ", message, v)
	b.WriteString("</Response>")
	return Response{Kind: KindSpeak, Body: b.String()}
}
