package provider

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// claudeJSON mirrors the Claude CLI --output-format json envelope.
type claudeJSON struct {
	Type    string `json:"type"`
	Model   string `json:"model,omitempty"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	TotalCostUSD float64 `json:"total_cost_usd,omitempty"`
	Result       string  `json:"result,omitempty"` // simpler responses
	SessionID    string  `json:"session_id,omitempty"`
}

// parseClaudeJSON parses Claude CLI JSON output. Non-JSON input is returned
// untouched as plain text.
func parseClaudeJSON(data string) *Response {
	var raw claudeJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return &Response{Content: data, Raw: data}
	}

	resp := &Response{Model: raw.Model, Raw: data}

	if len(raw.Content) > 0 {
		for _, c := range raw.Content {
			if c.Type == "text" {
				resp.Content += c.Text
			}
		}
	} else if raw.Result != "" {
		resp.Content = raw.Result
	}
	if resp.Content == "" {
		resp.Content = data
	}

	if raw.Usage != nil {
		resp.Metadata = &Metadata{
			InputTokens:  raw.Usage.InputTokens,
			OutputTokens: raw.Usage.OutputTokens,
			TotalTokens:  raw.Usage.InputTokens + raw.Usage.OutputTokens,
			Cost:         raw.TotalCostUSD,
			StopReason:   raw.StopReason,
			SessionID:    raw.SessionID,
		}
	}
	return resp
}

// geminiJSON mirrors the Gemini CLI JSON envelope, with fallbacks for the
// traditional API response shape.
type geminiJSON struct {
	Response string `json:"response,omitempty"`
	Stats    *struct {
		Models map[string]*struct {
			API *struct {
				TotalLatencyMs int64 `json:"totalLatencyMs"`
			} `json:"api,omitempty"`
			Tokens *struct {
				Prompt     int `json:"prompt"`
				Candidates int `json:"candidates"`
				Total      int `json:"total"`
			} `json:"tokens,omitempty"`
		} `json:"models,omitempty"`
	} `json:"stats,omitempty"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	Text string `json:"text,omitempty"`
}

// parseGeminiJSON parses Gemini CLI JSON output.
func parseGeminiJSON(data string) *Response {
	var raw geminiJSON
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return &Response{Content: data, Raw: data}
	}

	resp := &Response{Raw: data}

	switch {
	case raw.Response != "":
		resp.Content = raw.Response
	case raw.Text != "":
		resp.Content = raw.Text
	case len(raw.Candidates) > 0:
		for _, part := range raw.Candidates[0].Content.Parts {
			resp.Content += part.Text
		}
		resp.Metadata = &Metadata{StopReason: raw.Candidates[0].FinishReason}
	default:
		resp.Content = data
	}

	if raw.Stats != nil && raw.Stats.Models != nil {
		if resp.Metadata == nil {
			resp.Metadata = &Metadata{}
		}
		for _, m := range raw.Stats.Models {
			if m.Tokens != nil {
				resp.Metadata.InputTokens += m.Tokens.Prompt
				resp.Metadata.OutputTokens += m.Tokens.Candidates
				resp.Metadata.TotalTokens += m.Tokens.Total
			}
		}
	}

	if raw.UsageMetadata != nil {
		if resp.Metadata == nil {
			resp.Metadata = &Metadata{}
		}
		if resp.Metadata.InputTokens == 0 {
			resp.Metadata.InputTokens = raw.UsageMetadata.PromptTokenCount
		}
		if resp.Metadata.OutputTokens == 0 {
			resp.Metadata.OutputTokens = raw.UsageMetadata.CandidatesTokenCount
		}
		if resp.Metadata.TotalTokens == 0 {
			resp.Metadata.TotalTokens = raw.UsageMetadata.TotalTokenCount
		}
	}

	return resp
}

// codexEvent is one line of the Codex CLI newline-delimited JSON stream.
type codexEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Role    string `json:"role,omitempty"`
		Content string `json:"content,omitempty"`
	} `json:"message,omitempty"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Text       string `json:"text,omitempty"`
}

// parseCodexJSON parses Codex CLI NDJSON output, falling back to plain text
// when no events are recognized.
func parseCodexJSON(data string) *Response {
	resp := &Response{Raw: data}

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var event codexEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			slog.Debug("failed to decode codex event line", "error", err)
			continue
		}

		if event.Message != nil && event.Message.Content != "" {
			resp.Content += event.Message.Content
		}
		if event.Text != "" {
			resp.Content += event.Text
		}

		if event.Usage != nil {
			if resp.Metadata == nil {
				resp.Metadata = &Metadata{}
			}
			resp.Metadata.InputTokens = event.Usage.PromptTokens
			resp.Metadata.OutputTokens = event.Usage.CompletionTokens
			resp.Metadata.TotalTokens = event.Usage.TotalTokens
		}
		if event.StopReason != "" {
			if resp.Metadata == nil {
				resp.Metadata = &Metadata{}
			}
			resp.Metadata.StopReason = event.StopReason
		}
		if event.SessionID != "" {
			if resp.Metadata == nil {
				resp.Metadata = &Metadata{}
			}
			resp.Metadata.SessionID = event.SessionID
		}
	}

	if resp.Content == "" {
		resp.Content = data
	}
	return resp
}
