package utils

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
)

// SuggestedAction 从模型回答中解析出的建议操作
type SuggestedAction struct {
	ActionID    string         `json:"action_id"`
	ActionName  string         `json:"action_name"`
	Description string         `json:"description"`
	Params      map[string]any `json:"params"`
}

var (
	recommendPattern  = regexp.MustCompile(`(?i)(?:I recommend|You could|Consider|You may want to) (generating|creating|sending|triggering) (?:a|the) (.*?)(?:\.|\n|$)`)
	actionLinePattern = regexp.MustCompile(`(?m)^\s*Action:\s*(.*?)\s*$`)
)

// ActionIDFor 将自由文本映射到预定义的操作 ID，无法识别时返回空字符串
func ActionIDFor(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "missing") && (strings.Contains(t, "info") || strings.Contains(t, "letter")):
		return "generate_missing_info"
	case strings.Contains(t, "risk") && strings.Contains(t, "review"):
		return "trigger_risk_review"
	case strings.Contains(t, "summary"):
		return "generate_client_summary"
	case strings.Contains(t, "tax review"):
		return "send_to_tax_review"
	}
	return ""
}

// ExtractActions 解析回答中的建议操作，按出现顺序去重
// 支持 "I recommend generating a ..." 句式、"Action: ..." 行，以及 {"actions":[...]} JSON 块
func ExtractActions(response string) []SuggestedAction {
	var actions []SuggestedAction
	var seen []string
	add := func(a SuggestedAction) {
		if a.ActionID == "" || slice.Contain(seen, a.ActionID) {
			return
		}
		if a.Params == nil {
			a.Params = map[string]any{}
		}
		seen = append(seen, a.ActionID)
		actions = append(actions, a)
	}

	for _, m := range recommendPattern.FindAllStringSubmatch(response, -1) {
		object := strings.TrimSpace(m[2])
		add(SuggestedAction{
			ActionID:    ActionIDFor(object),
			ActionName:  object,
			Description: "AI suggested: " + strings.TrimSpace(m[0]),
		})
	}

	for _, m := range actionLinePattern.FindAllStringSubmatch(response, -1) {
		text := strings.Trim(strings.TrimSpace(m[1]), "[]")
		add(SuggestedAction{
			ActionID:    ActionIDFor(text),
			ActionName:  text,
			Description: "AI suggested action: " + text,
		})
	}

	for _, a := range jsonActions(response) {
		if a.ActionID == "" {
			a.ActionID = ActionIDFor(a.ActionName)
		}
		add(a)
	}
	return actions
}

func jsonActions(response string) []SuggestedAction {
	raw := ExtractJSON(response)
	if !strings.HasPrefix(raw, "{") {
		return nil
	}
	var payload struct {
		Actions []SuggestedAction `json:"actions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Actions
}
