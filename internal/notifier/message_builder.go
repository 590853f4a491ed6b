package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// maxSectionText is Slack's limit for a section block's text.
const maxSectionText = 3000

// Message is a Slack-compatible payload: fallback text plus Block Kit blocks.
type Message struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is a Block Kit layout block.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Fields   []Text `json:"fields,omitempty"`
	Elements []any  `json:"elements,omitempty"`
}

// Text is a Block Kit text object.
type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Image is a Block Kit image element.
type Image struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
}

// Button is a Block Kit link button.
type Button struct {
	Type string `json:"type"`
	Text Text   `json:"text"`
	URL  string `json:"url"`
}

func plain(s string) *Text    { return &Text{Type: "plain_text", Text: s, Emoji: true} }
func markdown(s string) *Text { return &Text{Type: "mrkdwn", Text: s} }

// MessageBuilder renders pipeline events into messages for one recipient.
type MessageBuilder struct{}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{}
}

// Build renders the notification for who about e, including any attached digest.
func (mb *MessageBuilder) Build(e *types.PipelineEvent, who types.Identity) Message {
	title := Title(e)

	blocks := []Block{
		{Type: "header", Text: plain(title)},
		{Type: "section", Text: markdown(mb.greeting(e, who))},
	}

	if fields := mb.fields(e); len(fields) > 0 {
		blocks = append(blocks, Block{Type: "section", Fields: fields})
	}

	if e.HasFailures() {
		blocks = append(blocks, Block{Type: "section", Text: markdown(codeBlock(e.Failures))})
	} else if e.Status == types.StatusFailed {
		blocks = append(blocks, Block{Type: "context", Elements: []any{
			markdown("No test failure details available. Check the pipeline logs."),
		}})
	}

	if ctx := mb.people(e, who); len(ctx) > 0 {
		blocks = append(blocks, Block{Type: "context", Elements: ctx})
	}

	if e.URL != "" {
		blocks = append(blocks, Block{Type: "actions", Elements: []any{
			Button{Type: "button", Text: *plain("Open pipeline"), URL: e.URL},
		}})
	}

	return Message{Text: title, Blocks: blocks}
}

// Title is the one-line summary used as header and notification fallback.
func Title(e *types.PipelineEvent) string {
	name := e.Name
	if e.Counter > 0 {
		name = fmt.Sprintf("%s #%d", e.Name, e.Counter)
	}
	switch e.Status {
	case types.StatusFailed:
		return fmt.Sprintf("❌ %s failed", name)
	case types.StatusSucceeded:
		return fmt.Sprintf("✅ %s is green", name)
	default:
		status := e.RawStatus
		if status == "" {
			status = "finished"
		}
		return fmt.Sprintf("⚠️ %s %s", name, strings.ToLower(status))
	}
}

func (mb *MessageBuilder) greeting(e *types.PipelineEvent, who types.Identity) string {
	hi := "Hi"
	if who.Name != "" {
		hi = "Hi " + who.Name
	}
	switch e.Status {
	case types.StatusFailed:
		if e.HasFailures() {
			return fmt.Sprintf("%s, *%s* failed with %d distinct test failure(s).", hi, e.Name, len(e.Failures))
		}
		return fmt.Sprintf("%s, *%s* failed.", hi, e.Name)
	case types.StatusSucceeded:
		return fmt.Sprintf("%s, every *%s* run is green again.", hi, e.Name)
	default:
		return fmt.Sprintf("%s, *%s* finished with status `%s`.", hi, e.Name, e.RawStatus)
	}
}

func (mb *MessageBuilder) fields(e *types.PipelineEvent) []Text {
	var fields []Text
	if e.Stage != "" {
		fields = append(fields, *markdown("*Stage:*\n" + e.Stage))
	}
	if e.Counter > 0 {
		fields = append(fields, *markdown(fmt.Sprintf("*Run:*\n#%d", e.Counter)))
	}
	return fields
}

func (mb *MessageBuilder) people(e *types.PipelineEvent, who types.Identity) []any {
	var out []any
	if who.Avatar != "" {
		out = append(out, Image{Type: "image", ImageURL: who.Avatar, AltText: who.Name})
	}
	out = append(out, markdown("Committed by "+personLabel(e.Committer)))
	if e.Approver != nil && e.Approver.Email != "" {
		out = append(out, markdown("Approved by "+personLabel(*e.Approver)))
	}
	return out
}

func personLabel(p types.Person) string {
	if p.Name == "" {
		return p.Email
	}
	return fmt.Sprintf("%s <%s>", p.Name, p.Email)
}

// codeBlock wraps the digest lines in a fenced block that fits one section.
func codeBlock(lines []string) string {
	const fence = "```"
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimRight(l, "\n")
	}
	body := strings.Join(trimmed, "\n")
	limit := maxSectionText - 2*len(fence) - len("\n…")
	if len(body) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "\n…"
	}
	return fence + body + fence
}
