package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageLen is the Telegram limit for a single message text.
	maxMessageLen = 4096
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultAPIBase,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
}

// Send sends a message to the configured chat, split into chunks if it exceeds
// the Telegram size limit.
func (t *TelegramNotifier) Send(text string) error {
	for _, chunk := range SplitMessage(text, maxMessageLen) {
		if err := t.sendOne(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) sendOne(text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(t.endpoint("sendMessage"), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry. Each chunk of
// a split message is retried on its own so delivered chunks are not resent.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	for _, chunk := range SplitMessage(text, maxMessageLen) {
		if err := t.retry(ctx, chunk, maxRetries); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramNotifier) retry(ctx context.Context, chunk string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.sendOne(chunk); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

var htmlTag = regexp.MustCompile(`<(/?)([a-zA-Z]+)[^>]*>`)

// SplitMessage breaks HTML text into chunks of at most limit bytes, preferring
// line boundaries. Tags still open at a cut are closed at the end of the chunk
// and reopened at the start of the next, so every chunk parses on its own.
// Lines longer than half the limit are cut on rune boundaries outside tags and
// entities.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks  []string
		cur     strings.Builder
		open    []string // opening tags, outermost first
		hasBody bool
	)
	for _, seg := range segments(text, limit/2) {
		after := applyTags(open, seg)
		if hasBody && cur.Len()+len(seg)+len(closeTags(after)) > limit {
			chunks = append(chunks, cur.String()+closeTags(open))
			cur.Reset()
			cur.WriteString(strings.Join(open, ""))
			hasBody = false
		}
		cur.WriteString(seg)
		hasBody = true
		open = after
	}
	if hasBody {
		chunks = append(chunks, cur.String()+closeTags(open))
	}
	return chunks
}

// segments splits text into lines, cutting lines longer than max.
func segments(text string, max int) []string {
	if max < utf8.UTFMax {
		max = utf8.UTFMax
	}
	var out []string
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > max {
			cut := safeCut(line, max)
			out = append(out, line[:cut])
			line = line[cut:]
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// safeCut returns a cut index <= max that falls on a rune start and outside any
// tag or entity. It falls back to the rune boundary when no such point exists.
func safeCut(line string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	head := line[:cut]
	if lt := strings.LastIndexByte(head, '<'); lt > strings.LastIndexByte(head, '>') && lt > 0 {
		cut = lt
	} else if amp := strings.LastIndexByte(head, '&'); amp > strings.LastIndexByte(head, ';') && amp > 0 {
		cut = amp
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(line)
		cut = size
	}
	return cut
}

// applyTags returns the open-tag stack after seg.
func applyTags(open []string, seg string) []string {
	out := append([]string(nil), open...)
	for _, m := range htmlTag.FindAllStringSubmatch(seg, -1) {
		if m[1] == "" {
			out = append(out, m[0])
			continue
		}
		name := strings.ToLower(m[2])
		for i := len(out) - 1; i >= 0; i-- {
			if tagName(out[i]) == name {
				out = append(out[:i], out[i+1:]...)
				break
			}
		}
	}
	return out
}

func closeTags(open []string) string {
	var b strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + tagName(open[i]) + ">")
	}
	return b.String()
}

func tagName(tag string) string {
	if m := htmlTag.FindStringSubmatch(tag); m != nil {
		return strings.ToLower(m[2])
	}
	return ""
}
