// Package gtranslate implements the translation port against the public
// Google Translate gtx endpoint, the same backend the deep-translator library
// talks to. Calls are network-bound and subject to transient failure; the
// orchestrator decides how far a single segment's failure propagates.
package gtranslate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	requestTimeout = 30 * time.Second

	// The endpoint rejects oversized q parameters; long texts are split at
	// this many characters and the translations rejoined.
	maxChunkLen = 4999
)

type Adapter struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Adapter {
	return &Adapter{
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: time.Minute},
	}
}

// Translate maps text from sourceLang to targetLang. An empty or unknown
// sourceLang falls back to server-side detection.
func (a *Adapter) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if sourceLang == "" {
		sourceLang = "auto"
	}

	chunks := splitChunks(text, maxChunkLen)
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		out, err := a.translateChunk(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, " "), nil
}

func (a *Adapter) translateChunk(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)
	endpoint := a.baseURL + "/translate_a/single?" + q.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("translate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return parseResponse(body)
}

// parseResponse digs the translated text out of the gtx nested-array payload:
// [[["<translated>","<original>",...], ...], null, "<detected lang>", ...]
func parseResponse(body []byte) (string, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return "", fmt.Errorf("translate: parse response: %w", err)
	}
	if len(outer) == 0 {
		return "", errors.New("translate: empty response")
	}

	var sentences []json.RawMessage
	if err := json.Unmarshal(outer[0], &sentences); err != nil {
		return "", fmt.Errorf("translate: parse sentences: %w", err)
	}

	var b strings.Builder
	for _, s := range sentences {
		var parts []json.RawMessage
		if err := json.Unmarshal(s, &parts); err != nil || len(parts) == 0 {
			continue
		}
		var text string
		if err := json.Unmarshal(parts[0], &text); err != nil {
			continue
		}
		b.WriteString(text)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("translate: no translation in response")
	}
	return out, nil
}

// splitChunks cuts text into pieces of at most limit bytes, preferring to
// break on whitespace. A cut that would land inside a multi-byte rune is
// backed up to the rune's first byte so every chunk stays valid UTF-8.
func splitChunks(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var out []string
	for len(text) > limit {
		cut := limit
		if i := strings.LastIndexByte(text[:limit], ' '); i > 0 {
			cut = i
		} else {
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		out = append(out, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
