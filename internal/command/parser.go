package command

import (
	"regexp"
	"strings"
)

// Type identifies a parsed user command.
type Type string

const (
	TypeRecommend Type = "recommend"
	TypeHelp      Type = "help"
	TypeStatus    Type = "status"
	TypeClear     Type = "clear"
	TypeUnknown   Type = "unknown"
)

// Command is a parsed user utterance.
type Command struct {
	Type       Type
	Text       string
	Confidence float64
}

// Parser matches free text against known command phrasings, Chinese and
// English. Patterns are anchored: partial matches inside longer sentences
// stay unknown so the bot does not hijack normal chat.
type Parser struct {
	patterns []typedPattern
}

type typedPattern struct {
	typ Type
	re  *regexp.Regexp
}

func NewParser() *Parser {
	specs := []struct {
		typ      Type
		patterns []string
	}{
		{TypeRecommend, []string{
			`^(?i)(抽|抽餐廳|抽一家|推薦|推薦餐廳|找餐廳|吃什麼|吃啥|要吃什麼)$`,
			`^(?i)(來一家|再來一家|換一家|重新抽|再抽)$`,
			`^(?i)(recommend|recommendation|suggest|draw|random|pick)$`,
			`^(?i)(find.*restaurant|what.*eat|where.*eat)$`,
		}},
		{TypeHelp, []string{
			`^(?i)(help|幫助|說明|指令|怎麼用|如何使用|\?)$`,
			`^(?i)(commands|功能|用法)$`,
		}},
		{TypeStatus, []string{
			`^(?i)(status|狀態|我的位置|現在位置|where am i)$`,
			`^(?i)(location|位置資訊)$`,
		}},
		{TypeClear, []string{
			`^(?i)(clear|清除|重設|reset|清空位置|刪除位置)$`,
			`^(?i)(重新設定|重來|重置)$`,
		}},
	}

	p := &Parser{}
	for _, spec := range specs {
		for _, pattern := range spec.patterns {
			p.patterns = append(p.patterns, typedPattern{
				typ: spec.typ,
				re:  regexp.MustCompile(pattern),
			})
		}
	}
	return p
}

// Parse maps text to a command, TypeUnknown with zero confidence when
// nothing matches.
func (p *Parser) Parse(text string) Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{Type: TypeUnknown, Text: text}
	}
	for _, tp := range p.patterns {
		if tp.re.MatchString(trimmed) {
			return Command{Type: tp.typ, Text: trimmed, Confidence: confidence(trimmed)}
		}
	}
	return Command{Type: TypeUnknown, Text: trimmed}
}

// Short utterances are almost always exact commands; longer matching text
// is more likely incidental.
func confidence(text string) float64 {
	if len([]rune(text)) <= 10 {
		return 1.0
	}
	c := 0.9 - float64(len([]rune(text)))*0.01
	if c < 0.5 {
		return 0.5
	}
	return c
}

// HelpText explains the available commands and the expected flow.
func HelpText() string {
	return `🤖 Whatever Eat 指令說明

📍 設定位置
傳送您的位置給我，我會記住 30 分鐘

🎲 抽餐廳指令
• 抽餐廳 / 推薦 / 吃什麼
• 來一家 / 再來一家 / 換一家
• recommend / random / pick

ℹ️ 其他指令
• 狀態 / status - 查看目前位置
• 清除 / clear - 清除位置記錄
• 幫助 / help - 顯示此說明

💡 使用流程
1️⃣ 先傳送您的位置
2️⃣ 輸入抽餐廳指令
3️⃣ 可重複抽取，無需重新設定位置`
}
